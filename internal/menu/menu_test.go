package menu

import (
	"context"
	"strings"
	"testing"

	"table-order/internal/models"
	"table-order/internal/store/memory"
	"table-order/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	items, err := ParseSeed(strings.NewReader(`{
		"menu": {
			"x": {"shopId": "s", "menuNumber": 2, "name": "B", "price": 100, "isActive": false},
			"y": {"shopId": "s", "menuNumber": 1, "name": "A", "price": 200}
		}
	}`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.MenuItem{ID: "y", ShopID: "s", MenuNumber: 1, Name: "A", Price: 200, IsActive: true}, items[0])
	assert.False(t, items[1].IsActive)
}

func TestParseSeedRejectsBadDocs(t *testing.T) {
	_, err := ParseSeed(strings.NewReader(`{"menu": {"x": {"shopId": "s", "menuNumber": 0}}}`))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = ParseSeed(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestSeedFileAndUseCase(t *testing.T) {
	log, tracer, _ := telemetry.Nop()
	st := memory.New()
	ctx := context.Background()

	n, err := SeedFile(ctx, st, "testdata/seed.json", log)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	uc := NewUseCase(st, log, tracer)

	active, err := uc.Active(ctx, "shop-a")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 101, active[0].MenuNumber)
	assert.Equal(t, 205, active[1].MenuNumber)

	lookup, err := uc.Lookup(ctx, "shop-a")
	require.NoError(t, err)
	it, ok := lookup.Get(300)
	require.True(t, ok)
	assert.Equal(t, "Edamame", it.Name)

	_, err = uc.Active(ctx, "  ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
