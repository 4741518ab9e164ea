package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	MessagesPublished metric.Int64Counter
	MessagesConsumed  metric.Int64Counter
	ProcessingTime    metric.Float64Histogram

	SessionsStarted    metric.Int64Counter
	OrdersSubmitted    metric.Int64Counter
	OrderValue         metric.Int64Histogram
	SessionsSettled    metric.Int64Counter
	SettledAmount      metric.Int64Histogram
	SettlementMismatch metric.Int64Counter
}

var amountBuckets = []float64{500, 1000, 2000, 5000, 10000, 20000, 50000}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	published, err := meter.Int64Counter("messages_published_total",
		metric.WithDescription("Total domain events published"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	consumed, err := meter.Int64Counter("messages_consumed_total",
		metric.WithDescription("Total domain events consumed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	procTime, err := meter.Float64Histogram("message_processing_duration_seconds",
		metric.WithDescription("Duration of event processing"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.3, 1.0),
	)
	if err != nil {
		return nil, err
	}

	started, err := meter.Int64Counter("sessions_started_total",
		metric.WithDescription("Session start requests by outcome"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	submitted, err := meter.Int64Counter("orders_submitted_total",
		metric.WithDescription("Order submissions by status"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	orderValue, err := meter.Int64Histogram("order_value_minor",
		metric.WithDescription("Order subtotal in minor currency units"),
		metric.WithUnit("{minor}"),
		metric.WithExplicitBucketBoundaries(amountBuckets...),
	)
	if err != nil {
		return nil, err
	}

	settled, err := meter.Int64Counter("sessions_settled_total",
		metric.WithDescription("Settlement attempts by status"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	settledAmount, err := meter.Int64Histogram("settled_amount_minor",
		metric.WithDescription("Settled session total in minor currency units"),
		metric.WithUnit("{minor}"),
		metric.WithExplicitBucketBoundaries(amountBuckets...),
	)
	if err != nil {
		return nil, err
	}

	mismatch, err := meter.Int64Counter("settlement_mismatch_total",
		metric.WithDescription("Settlements whose event total differs from the stored checkout total"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		MessagesPublished:  published,
		MessagesConsumed:   consumed,
		ProcessingTime:     procTime,
		SessionsStarted:    started,
		OrdersSubmitted:    submitted,
		OrderValue:         orderValue,
		SessionsSettled:    settled,
		SettledAmount:      settledAmount,
		SettlementMismatch: mismatch,
	}, nil
}
