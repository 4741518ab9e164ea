package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"table-order/internal/models"
	"table-order/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const menuCollection = "menu"

// seedDoc is one menu document of a seed file.
type seedDoc struct {
	ShopID     string `json:"shopId"`
	MenuNumber int    `json:"menuNumber"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	IsActive   *bool  `json:"isActive"`
}

// ParseSeed reads a seed file laid out as collection -> document id ->
// document. Only the "menu" collection is used; items come out ordered by
// shop and menu number.
func ParseSeed(r io.Reader) ([]models.MenuItem, error) {
	var data map[string]map[string]seedDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}

	docs := data[menuCollection]
	items := make([]models.MenuItem, 0, len(docs))
	for id, d := range docs {
		if d.ShopID == "" || d.MenuNumber <= 0 || d.Price < 0 {
			return nil, fmt.Errorf("%w: menu/%s needs shopId, a positive menuNumber and a non-negative price", models.ErrInvalidInput, id)
		}
		if id == "" {
			id = uuid.NewString()
		}
		active := true
		if d.IsActive != nil {
			active = *d.IsActive
		}
		items = append(items, models.MenuItem{
			ID:         id,
			ShopID:     d.ShopID,
			MenuNumber: d.MenuNumber,
			Name:       d.Name,
			Price:      d.Price,
			IsActive:   active,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].ShopID != items[j].ShopID {
			return items[i].ShopID < items[j].ShopID
		}
		return items[i].MenuNumber < items[j].MenuNumber
	})
	return items, nil
}

// SeedFile loads path into the store and returns the number of items written.
func SeedFile(ctx context.Context, st store.Store, path string, log *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	items, err := ParseSeed(f)
	if err != nil {
		return 0, err
	}

	for _, it := range items {
		if err := st.PutMenuItem(ctx, it); err != nil {
			return 0, fmt.Errorf("failed to write menu/%s: %w", it.ID, err)
		}
		log.Debug("menu item written",
			zap.String("id", it.ID),
			zap.String("shop_id", it.ShopID),
			zap.Int("menu_number", it.MenuNumber),
		)
	}

	log.Info("menu seeded", zap.String("file", path), zap.Int("items", len(items)))
	return len(items), nil
}
