package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type SessionStatus int

const (
	SessionActive SessionStatus = iota + 1
	SessionPaid
)

func (s SessionStatus) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionPaid:
		return "paid"
	default:
		return "unknown"
	}
}

func ParseSessionStatus(v string) (SessionStatus, error) {
	switch v {
	case "active":
		return SessionActive, nil
	case "paid":
		return SessionPaid, nil
	default:
		return 0, fmt.Errorf("unknown session status %q", v)
	}
}

func (s SessionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := ParseSessionStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Session struct {
	ID          string        `json:"id"`
	ShopID      string        `json:"shopId"`
	TableNumber int           `json:"tableNumber"`
	Status      SessionStatus `json:"status"`
	TotalAmount int64         `json:"totalAmount"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
}

// AcceptsOrders reports whether new orders may be appended.
func (s Session) AcceptsOrders() bool { return s.Status == SessionActive }

// MarkPaid is the only forward transition. PaidAt is stamped on the first call only.
func (s *Session) MarkPaid(total int64, now time.Time) {
	s.Status = SessionPaid
	s.TotalAmount = total
	s.UpdatedAt = now
	if s.PaidAt == nil {
		paidAt := now
		s.PaidAt = &paidAt
	}
}

func NewSession(id, shopID string, tableNumber int, now time.Time) Session {
	return Session{
		ID:          id,
		ShopID:      shopID,
		TableNumber: tableNumber,
		Status:      SessionActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
