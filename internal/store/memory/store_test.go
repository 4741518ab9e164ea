package memory

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-order/internal/models"
)

var now = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

func startNew(id string) func(*models.TableBinding, *models.Session) (*models.Session, error) {
	return func(b *models.TableBinding, cur *models.Session) (*models.Session, error) {
		if cur != nil && cur.AcceptsOrders() {
			return nil, nil
		}
		s := models.NewSession(id, "shop", 4, now)
		return &s, nil
	}
}

func TestStartSessionCreatesBindingOnce(t *testing.T) {
	ctx := context.Background()
	st := New()

	s1, created, err := st.StartSession(ctx, "shop", 4, startNew("s1"))
	require.NoError(t, err)
	assert.True(t, created)

	s2, created, err := st.StartSession(ctx, "shop", 4, startNew("s2"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, s1.ID, s2.ID)

	b, ok, err := st.GetTable(ctx, "shop", 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s1", b.CurrentSessionID)
	assert.True(t, b.IsOccupied)
}

func TestAppendOrderIncrementsConcurrently(t *testing.T) {
	ctx := context.Background()
	st := New()
	_, _, err := st.StartSession(ctx, "shop", 4, startNew("s1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.AppendOrder(ctx, models.Order{
				ID: "o" + strconv.Itoa(i), SessionID: "s1", ShopID: "shop", TableNumber: 4,
				Items: []int{101}, SubTotal: 500, CreatedAt: now,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sess, err := st.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(50*500), sess.TotalAmount)

	orders, err := st.ListOrders(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, orders, 50)
}

func TestAppendOrderErrors(t *testing.T) {
	ctx := context.Background()
	st := New()

	_, err := st.AppendOrder(ctx, models.Order{SessionID: "missing"})
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	_, _, err = st.StartSession(ctx, "shop", 4, startNew("s1"))
	require.NoError(t, err)
	_, _, err = st.SettleSession(ctx, "s1", now)
	require.NoError(t, err)

	_, err = st.AppendOrder(ctx, models.Order{SessionID: "s1", SubTotal: 100})
	assert.ErrorIs(t, err, models.ErrSessionClosed)
}

func TestSettleRecomputesAndReleasesTable(t *testing.T) {
	ctx := context.Background()
	st := New()
	_, _, err := st.StartSession(ctx, "shop", 4, startNew("s1"))
	require.NoError(t, err)
	for i, sub := range []int64{1800, 300} {
		_, err := st.AppendOrder(ctx, models.Order{ID: strconv.Itoa(i), SessionID: "s1", SubTotal: sub, CreatedAt: now})
		require.NoError(t, err)
	}

	// drift the cached total; settlement must ignore it
	st.mu.Lock()
	drifted := st.sessions["s1"]
	drifted.TotalAmount = 99999
	st.sessions["s1"] = drifted
	st.mu.Unlock()

	sess, orders, err := st.SettleSession(ctx, "s1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaid, sess.Status)
	assert.Equal(t, int64(2100), sess.TotalAmount)
	assert.Len(t, orders, 2)

	again, _, err := st.SettleSession(ctx, "s1", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, sess.TotalAmount, again.TotalAmount)
	assert.Equal(t, *sess.PaidAt, *again.PaidAt)

	b, _, err := st.GetTable(ctx, "shop", 4)
	require.NoError(t, err)
	assert.False(t, b.IsOccupied)

	_, _, err = st.SettleSession(ctx, "nope", now)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestListMenu(t *testing.T) {
	ctx := context.Background()
	st := New()
	require.NoError(t, st.PutMenuItem(ctx, models.MenuItem{ID: "b", ShopID: "shop", MenuNumber: 205, Name: "Highball", Price: 800, IsActive: true}))
	require.NoError(t, st.PutMenuItem(ctx, models.MenuItem{ID: "a", ShopID: "shop", MenuNumber: 101, Name: "Karaage", Price: 500, IsActive: true}))
	require.NoError(t, st.PutMenuItem(ctx, models.MenuItem{ID: "c", ShopID: "shop", MenuNumber: 310, Name: "Edamame", Price: 300}))
	require.NoError(t, st.PutMenuItem(ctx, models.MenuItem{ID: "d", ShopID: "other", MenuNumber: 1, Price: 1, IsActive: true}))
	assert.ErrorIs(t, st.PutMenuItem(ctx, models.MenuItem{ShopID: "shop"}), models.ErrInvalidInput)

	all, err := st.ListMenu(ctx, "shop", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := st.ListMenu(ctx, "shop", true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 101, active[0].MenuNumber)
	assert.Equal(t, 205, active[1].MenuNumber)
}
