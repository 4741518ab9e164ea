package models

import "time"

type Order struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	ShopID      string    `json:"shopId"`
	TableNumber int       `json:"tableNumber"`
	Items       []int     `json:"items"`
	SubTotal    int64     `json:"subTotal"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OrderPlaced is published after an order has been recorded against a session.
type OrderPlaced struct {
	OrderID      string    `json:"orderId"`
	SessionID    string    `json:"sessionId"`
	ShopID       string    `json:"shopId"`
	TableNumber  int       `json:"tableNumber"`
	Items        []int     `json:"items"`
	SubTotal     int64     `json:"subTotal"`
	SessionTotal int64     `json:"sessionTotal"`
	CreatedAt    time.Time `json:"createdAt"`
}
