// Package cart keeps what a table has picked but not yet ordered.
package cart

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	CartKey    = "hukumatu-cart"
	PendingKey = "hukumatu-pending-item"

	// MaxCodeDigits bounds the menu number typed on the keypad.
	MaxCodeDigits = 6
)

type Item struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Price    int64     `json:"price"`
	Quantity int       `json:"quantity"`
	ShopID   string    `json:"shopId,omitempty"`
	Table    string    `json:"table,omitempty"`
	Lang     string    `json:"lang,omitempty"`
	People   string    `json:"people,omitempty"`
	AddedAt  time.Time `json:"addedAt"`
}

// Pending is the item being confirmed on the quantity step.
type Pending struct {
	Code      string `json:"code"`
	ItemName  string `json:"itemName"`
	ItemPrice int64  `json:"itemPrice"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	storage Storage
	now     func() time.Time
}

func New(storage Storage) *Cart {
	return &Cart{storage: storage, now: time.Now}
}

// Items returns the stored rows. A missing or unreadable cart is empty.
func (c *Cart) Items() ([]Item, error) {
	raw, ok, err := c.storage.Get(CartKey)
	if err != nil || !ok {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

func (c *Cart) save(items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.storage.Set(CartKey, raw)
}

// Add appends a row. Adding the same code twice keeps two rows.
func (c *Cart) Add(item Item) error {
	if item.Code == "" || len(item.Code) > MaxCodeDigits {
		return fmt.Errorf("invalid menu code %q", item.Code)
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = c.now().UTC()
	}
	items, err := c.Items()
	if err != nil {
		return err
	}
	return c.save(append(items, item))
}

func (c *Cart) Increase(index int) error {
	return c.update(index, func(it *Item) { it.Quantity++ })
}

// Decrease lowers a row's quantity but never below one.
func (c *Cart) Decrease(index int) error {
	return c.update(index, func(it *Item) {
		if it.Quantity > 1 {
			it.Quantity--
		}
	})
}

func (c *Cart) update(index int, fn func(*Item)) error {
	items, err := c.Items()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("cart row %d out of range", index)
	}
	fn(&items[index])
	return c.save(items)
}

func (c *Cart) TotalCount() (int, error) {
	items, err := c.Items()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

func (c *Cart) TotalPrice() (int64, error) {
	items, err := c.Items()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}
	return total, nil
}

// ItemNumbers expands the rows into the items array of an order, one entry per
// unit. Rows whose code is not a number are skipped.
func (c *Cart) ItemNumbers() ([]int, error) {
	items, err := c.Items()
	if err != nil {
		return nil, err
	}
	var out []int
	for _, it := range items {
		n, err := strconv.Atoi(it.Code)
		if err != nil {
			continue
		}
		for i := 0; i < it.Quantity; i++ {
			out = append(out, n)
		}
	}
	return out, nil
}

func (c *Cart) Clear() error {
	return c.storage.Clear(CartKey)
}

func (c *Cart) SavePending(p Pending) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.storage.Set(PendingKey, raw)
}

// Pending restores the quantity step. ok is false when nothing usable is saved.
func (c *Cart) Pending() (p Pending, ok bool, err error) {
	raw, found, err := c.storage.Get(PendingKey)
	if err != nil || !found {
		return Pending{}, false, err
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.Code == "" {
		return Pending{}, false, nil
	}
	if p.Quantity < 1 {
		p.Quantity = 1
	}
	return p, true, nil
}

func (c *Cart) ClearPending() error {
	return c.storage.Clear(PendingKey)
}
