package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"table-order/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/segmentio/kafka-go"
)

// Producer publishes JSON events to one topic. Messages are keyed so that
// every event of a session lands on the same partition.
type Producer struct {
	writer  *kafka.Writer
	topic   string
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

func NewProducer(brokers []string, topic string, metrics *telemetry.Metrics) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer:  writer,
		topic:   topic,
		tracer:  otel.Tracer("kafka/producer"),
		metrics: metrics,
	}
}

func (p *Producer) Publish(ctx context.Context, key string, value any) error {
	ctx, span := p.tracer.Start(ctx, fmt.Sprintf("publish %s", p.topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(p.topic),
			attribute.String("messaging.kafka.message.key", key),
		),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	headers := make([]kafka.Header, 0, 3)
	otel.GetTextMapPropagator().Inject(ctx, &headerCarrier{headers: &headers})

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Time:    time.Now(),
		Headers: headers,
	}

	status := "ok"
	defer func() {
		p.metrics.MessagesPublished.Add(ctx, 1, metric.WithAttributes(
			attribute.String("topic", p.topic),
			attribute.String("status", status),
		))
	}()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *Producer) Topic() string { return p.topic }

func (p *Producer) Close() error {
	return p.writer.Close()
}
