package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStatusJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Status SessionStatus `json:"status"`
	}{SessionPaid})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"paid"}`, string(b))

	var out struct {
		Status SessionStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"active"}`), &out))
	assert.Equal(t, SessionActive, out.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"closed"}`), &out))
}

func TestMarkPaidStampsOnce(t *testing.T) {
	first := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	s := NewSession("s1", "shop", 3, first)
	assert.True(t, s.AcceptsOrders())

	s.MarkPaid(1800, first)
	s.MarkPaid(1800, first.Add(time.Hour))

	assert.False(t, s.AcceptsOrders())
	require.NotNil(t, s.PaidAt)
	assert.Equal(t, first, *s.PaidAt)
	assert.Equal(t, first.Add(time.Hour), s.UpdatedAt)
	assert.Equal(t, int64(1800), s.TotalAmount)
}

func TestTableKey(t *testing.T) {
	assert.Equal(t, "shop-a_12", TableKey("shop-a", 12))
}
