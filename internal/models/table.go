package models

import (
	"strconv"
	"time"
)

type TableBinding struct {
	ShopID           string    `json:"shopId"`
	TableNumber      int       `json:"tableNumber"`
	CurrentSessionID string    `json:"currentSessionId,omitempty"`
	IsOccupied       bool      `json:"isOccupied"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableKey is the derived id of a binding: "<shopId>_<tableNumber>".
func TableKey(shopID string, tableNumber int) string {
	return shopID + "_" + strconv.Itoa(tableNumber)
}
