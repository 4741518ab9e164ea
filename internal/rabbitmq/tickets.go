package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"table-order/internal/models"
	"table-order/internal/telemetry"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table) error
}

// TicketPublisher forwards placed orders to the kitchen. Other events are
// ignored.
type TicketPublisher struct {
	client  publisher
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

func NewTicketPublisher(client *Client, metrics *telemetry.Metrics) *TicketPublisher {
	return &TicketPublisher{client: client, tracer: otel.Tracer("rabbitmq/publisher"), metrics: metrics}
}

func RoutingKey(o models.OrderPlaced) string {
	return fmt.Sprintf("kitchen.%s.%d", o.ShopID, o.TableNumber)
}

func (p *TicketPublisher) Publish(ctx context.Context, _ string, value any) error {
	var ticket models.OrderPlaced
	switch v := value.(type) {
	case models.OrderPlaced:
		ticket = v
	case *models.OrderPlaced:
		ticket = *v
	default:
		return nil
	}

	key := RoutingKey(ticket)
	ctx, span := p.tracer.Start(ctx, fmt.Sprintf("publish %s", KitchenExchange),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemRabbitmq,
			semconv.MessagingDestinationName(KitchenExchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", key),
		),
	)
	defer span.End()

	body, err := json.Marshal(ticket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to serialize ticket: %w", err)
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, tableCarrier(headers))

	status := "ok"
	err = p.client.Publish(ctx, KitchenExchange, key, body, headers)
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	p.metrics.MessagesPublished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", KitchenExchange),
		attribute.String("status", status),
	))
	if err != nil {
		return fmt.Errorf("failed to publish ticket: %w", err)
	}
	return nil
}

// tableCarrier adapts AMQP headers to propagation.TextMapCarrier.
type tableCarrier amqp.Table

func (c tableCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c tableCarrier) Set(key, value string) { c[key] = value }

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
