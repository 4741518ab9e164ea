package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"table-order/internal/models"
	"table-order/internal/telemetry"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type recorded struct {
	exchange, key string
	body          []byte
}

type fakeClient struct {
	sent []recorded
	err  error
}

func (f *fakeClient) Publish(_ context.Context, exchange, key string, body []byte, _ amqp.Table) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recorded{exchange: exchange, key: key, body: body})
	return nil
}

func newTestPublisher(c publisher) *TicketPublisher {
	_, _, m := telemetry.Nop()
	return &TicketPublisher{client: c, tracer: noop.NewTracerProvider().Tracer("test"), metrics: m}
}

func TestTicketPublisherRoutesByTable(t *testing.T) {
	fc := &fakeClient{}
	p := newTestPublisher(fc)

	placed := models.OrderPlaced{OrderID: "o1", SessionID: "s1", ShopID: "shop-a", TableNumber: 7, Items: []int{101, 205}}
	require.NoError(t, p.Publish(context.Background(), "s1", placed))
	require.NoError(t, p.Publish(context.Background(), "s1", &placed))

	require.Len(t, fc.sent, 2)
	assert.Equal(t, KitchenExchange, fc.sent[0].exchange)
	assert.Equal(t, "kitchen.shop-a.7", fc.sent[0].key)

	var got models.OrderPlaced
	require.NoError(t, json.Unmarshal(fc.sent[0].body, &got))
	assert.Equal(t, []int{101, 205}, got.Items)
}

func TestTicketPublisherIgnoresOtherEvents(t *testing.T) {
	fc := &fakeClient{}
	p := newTestPublisher(fc)

	require.NoError(t, p.Publish(context.Background(), "s1", models.SessionSettled{SessionID: "s1"}))
	assert.Empty(t, fc.sent)
}

func TestTicketPublisherWrapsErrors(t *testing.T) {
	p := newTestPublisher(&fakeClient{err: ErrNack})
	err := p.Publish(context.Background(), "s1", models.OrderPlaced{ShopID: "x", TableNumber: 1})
	assert.True(t, errors.Is(err, ErrNack))
}
