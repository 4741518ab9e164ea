package models

import "time"

type SessionSettled struct {
	SessionID   string    `json:"sessionId"`
	ShopID      string    `json:"shopId"`
	TableNumber int       `json:"tableNumber"`
	TotalAmount int64     `json:"totalAmount"`
	OrderCount  int       `json:"orderCount"`
	PaidAt      time.Time `json:"paidAt"`
}
