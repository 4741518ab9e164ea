package table

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"table-order/internal/models"
	"table-order/internal/store/memory"
	"table-order/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUseCase(t *testing.T, opts Options) (*UseCase, *memory.Store) {
	t.Helper()
	log, tracer, metrics := telemetry.Nop()
	st := memory.New()
	uc := NewUseCase(st, opts, metrics, log, tracer)
	n := 0
	uc.newID = func() string {
		n++
		return fmt.Sprintf("S%d", n)
	}
	uc.now = func() time.Time { return time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC) }
	return uc, st
}

func TestStartCreatesThenReuses(t *testing.T) {
	uc, st := newTestUseCase(t, Options{})
	ctx := context.Background()

	first, created, err := uc.Start(ctx, "shop-a", 4)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "S1", first.ID)
	assert.Equal(t, models.SessionActive, first.Status)
	assert.Zero(t, first.TotalAmount)

	again, created, err := uc.Start(ctx, "shop-a", 4)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	b, ok, err := st.GetTable(ctx, "shop-a", 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, b.IsOccupied)
	assert.Equal(t, "S1", b.CurrentSessionID)
}

func TestStartReturnsPaidSession(t *testing.T) {
	uc, st := newTestUseCase(t, Options{})
	ctx := context.Background()

	first, _, err := uc.Start(ctx, "shop-a", 4)
	require.NoError(t, err)
	_, _, err = st.SettleSession(ctx, first.ID, time.Now())
	require.NoError(t, err)

	again, created, err := uc.Start(ctx, "shop-a", 4)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.SessionPaid, again.Status)
}

func TestStartMintAfterSettle(t *testing.T) {
	uc, st := newTestUseCase(t, Options{MintAfterSettle: true})
	ctx := context.Background()

	first, _, err := uc.Start(ctx, "shop-a", 4)
	require.NoError(t, err)
	_, _, err = st.SettleSession(ctx, first.ID, time.Now())
	require.NoError(t, err)

	next, created, err := uc.Start(ctx, "shop-a", 4)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, next.ID)
	assert.True(t, next.AcceptsOrders())

	b, _, err := st.GetTable(ctx, "shop-a", 4)
	require.NoError(t, err)
	assert.Equal(t, next.ID, b.CurrentSessionID)
	assert.True(t, b.IsOccupied)
}

func TestStartTablesAreIndependent(t *testing.T) {
	uc, _ := newTestUseCase(t, Options{})
	ctx := context.Background()

	a, _, err := uc.Start(ctx, "shop-a", 1)
	require.NoError(t, err)
	b, _, err := uc.Start(ctx, "shop-a", 2)
	require.NoError(t, err)
	c, _, err := uc.Start(ctx, "shop-b", 1)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestStartValidation(t *testing.T) {
	uc, _ := newTestUseCase(t, Options{})
	for _, tc := range []struct {
		shop  string
		table int
	}{{"", 1}, {" ", 1}, {"shop-a", 0}, {"shop-a", -3}} {
		_, _, err := uc.Start(context.Background(), tc.shop, tc.table)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
}

func TestConcurrentStartsShareOneSession(t *testing.T) {
	log, tracer, metrics := telemetry.Nop()
	uc := NewUseCase(memory.New(), Options{}, metrics, log, tracer)

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, _, err := uc.Start(context.Background(), "shop-a", 9)
			if err == nil {
				ids[i] = sess.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
}

func TestNewSessionIDIsUpperCase(t *testing.T) {
	id := NewSessionID()
	assert.Len(t, id, 36)
	assert.Regexp(t, `^[0-9A-F-]+$`, id)
}
