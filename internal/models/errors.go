package models

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownMenuItem = errors.New("unknown menu item")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session already paid")
	ErrUnauthorized    = errors.New("unauthorized")
)
