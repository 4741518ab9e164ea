// Package httperr maps domain errors to HTTP responses.
package httperr

import (
	"errors"

	"table-order/internal/models"

	"github.com/gofiber/fiber/v2"
)

func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnknownMenuItem):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrSessionClosed):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Write sends {"error": msg}. Internal errors are not echoed to the client.
func Write(c *fiber.Ctx, err error) error {
	status := Status(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
