package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"table-order/internal/cart"
	"table-order/internal/models"
	"table-order/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTableAPI(t *testing.T, orderStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/session/start", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, map[string]any{"sessionId": "S1"})
	})
	mux.HandleFunc("/menu", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, []models.MenuItem{{ID: "m101", ShopID: "shop-a", MenuNumber: 101, Name: "Karaage", Price: 500, IsActive: true}})
	})
	mux.HandleFunc("/order", func(w http.ResponseWriter, _ *http.Request) {
		if orderStatus != http.StatusOK {
			reply(w, orderStatus, map[string]any{"error": "order rejected"})
			return
		}
		reply(w, http.StatusOK, map[string]any{"orderId": "o1", "total": 500, "message": "order accepted"})
	})
	mux.HandleFunc("/order/history", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, map[string]any{"total": 0, "totalCount": 0})
	})
	mux.HandleFunc("/admin/settle", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, map[string]any{"totalAmount": 0})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGenerator(t *testing.T, addr string) (*generator, *table) {
	t.Helper()
	log, _, _ := telemetry.Nop()
	tb := &table{number: 5, people: "2", lang: "ja", cart: cart.New(cart.NewMemoryStorage())}
	return &generator{
		addr:     addr,
		shop:     "shop-a",
		password: "adminpass",
		client:   http.DefaultClient,
		log:      log,
		tables:   []*table{tb},
	}, tb
}

func TestVisitKeepsCartWhenOrderFails(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		srv := fakeTableAPI(t, code)
		g, tb := newTestGenerator(t, srv.URL)

		g.visit(context.Background(), tb)

		items, err := tb.cart.Items()
		require.NoError(t, err)
		assert.NotEmpty(t, items, "status %d", code)
	}
}

func TestVisitClearsCartAfterOrder(t *testing.T) {
	srv := fakeTableAPI(t, http.StatusOK)
	g, tb := newTestGenerator(t, srv.URL)

	g.visit(context.Background(), tb)

	items, err := tb.cart.Items()
	require.NoError(t, err)
	assert.Empty(t, items)
}
