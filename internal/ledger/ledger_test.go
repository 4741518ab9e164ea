package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"table-order/internal/models"
	"table-order/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/baggage"
)

func checkoutServer(t *testing.T, view checkoutView, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout", r.URL.Path)
		assert.Equal(t, view.SessionID, r.URL.Query().Get("sessionId"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(view)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newChecker(addr string) *Checker {
	log, tracer, metrics := telemetry.Nop()
	return NewChecker(addr, http.DefaultClient, metrics, log, tracer)
}

func settled(t *testing.T, total int64, orders int) []byte {
	t.Helper()
	b, err := json.Marshal(models.SessionSettled{SessionID: "S1", ShopID: "shop-a", TableNumber: 2, TotalAmount: total, OrderCount: orders})
	require.NoError(t, err)
	return b
}

func TestHandleSettlementMatches(t *testing.T) {
	srv := checkoutServer(t, checkoutView{
		SessionID:   "S1",
		TotalAmount: 1800,
		Status:      "paid",
		Orders:      []models.Order{{SubTotal: 1200}, {SubTotal: 600}},
	}, http.StatusOK)

	assert.NoError(t, newChecker(srv.URL).HandleSettlement(context.Background(), nil, settled(t, 1800, 2)))
}

func TestHandleSettlementMismatchIsNotAnError(t *testing.T) {
	srv := checkoutServer(t, checkoutView{
		SessionID:   "S1",
		TotalAmount: 1800,
		Orders:      []models.Order{{SubTotal: 1200}},
	}, http.StatusOK)

	assert.NoError(t, newChecker(srv.URL).HandleSettlement(context.Background(), nil, settled(t, 1800, 2)))
}

func TestHandleSettlementAPIFailure(t *testing.T) {
	srv := checkoutServer(t, checkoutView{SessionID: "S1"}, http.StatusNotFound)
	assert.Error(t, newChecker(srv.URL).HandleSettlement(context.Background(), nil, settled(t, 0, 0)))
	assert.Error(t, newChecker(srv.URL).HandleSettlement(context.Background(), nil, []byte("{")))
}

func TestHandleOrder(t *testing.T) {
	c := newChecker("http://unused")
	b, err := json.Marshal(models.OrderPlaced{OrderID: "o1", SessionID: "S1", Items: []int{101}})
	require.NoError(t, err)
	assert.NoError(t, c.HandleOrder(context.Background(), nil, b))
	assert.Error(t, c.HandleOrder(context.Background(), nil, []byte("nope")))
}

func TestTableOfPrefersBaggage(t *testing.T) {
	assert.Equal(t, "shop-a_2", tableOf(context.Background(), "shop-a", 2))

	member, err := baggage.NewMember("table", "shop-z_9")
	require.NoError(t, err)
	bag, err := baggage.New(member)
	require.NoError(t, err)
	ctx := baggage.ContextWithBaggage(context.Background(), bag)
	assert.Equal(t, "shop-z_9", tableOf(ctx, "shop-a", 2))
}
