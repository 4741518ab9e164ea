package models

type MenuItem struct {
	ID         string `json:"id"`
	ShopID     string `json:"shopId"`
	MenuNumber int    `json:"menuNumber"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	IsActive   bool   `json:"isActive"`
}
