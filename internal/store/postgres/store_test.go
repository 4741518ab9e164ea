package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"table-order/internal/models"
)

// newTestStore connects to TEST_DATABASE_URL; the tests are skipped without it.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := Connect(ctx, Config{DSN: dsn, MaxConns: 4}, zap.NewNop())
	require.NoError(t, err)
	st := New(pool)
	t.Cleanup(st.Close)
	return st
}

func TestSessionLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	shop := "test-" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, st.PutMenuItem(ctx, models.MenuItem{ID: uuid.NewString(), ShopID: shop, MenuNumber: 101, Name: "Karaage", Price: 500, IsActive: true}))
	require.NoError(t, st.PutMenuItem(ctx, models.MenuItem{ID: uuid.NewString(), ShopID: shop, MenuNumber: 310, Name: "Edamame", Price: 300}))
	menu, err := st.ListMenu(ctx, shop, true)
	require.NoError(t, err)
	require.Len(t, menu, 1)

	sessionID := uuid.NewString()
	decide := func(b *models.TableBinding, cur *models.Session) (*models.Session, error) {
		if cur != nil && cur.AcceptsOrders() {
			return nil, nil
		}
		s := models.NewSession(sessionID, shop, 7, now)
		return &s, nil
	}
	sess, created, err := st.StartSession(ctx, shop, 7, decide)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := st.StartSession(ctx, shop, 7, decide)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sess.ID, again.ID)

	for _, items := range [][]int{{101, 101}, {310}} {
		var sub int64
		for _, n := range items {
			if n == 101 {
				sub += 500
			} else {
				sub += 300
			}
		}
		_, err := st.AppendOrder(ctx, models.Order{
			ID: uuid.NewString(), SessionID: sessionID, ShopID: shop, TableNumber: 7,
			Items: items, SubTotal: sub, CreatedAt: now,
		})
		require.NoError(t, err)
	}

	got, err := st.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), got.TotalAmount)

	paid, orders, err := st.SettleSession(ctx, sessionID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaid, paid.Status)
	assert.Equal(t, int64(1300), paid.TotalAmount)
	assert.Len(t, orders, 2)

	_, err = st.AppendOrder(ctx, models.Order{ID: uuid.NewString(), SessionID: sessionID, ShopID: shop, TableNumber: 7, Items: []int{101}, SubTotal: 500, CreatedAt: now})
	assert.ErrorIs(t, err, models.ErrSessionClosed)

	b, ok, err := st.GetTable(ctx, shop, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, b.IsOccupied)

	_, err = st.GetSession(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}
