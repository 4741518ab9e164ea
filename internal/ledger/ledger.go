// Package ledger cross-checks settlement events against the table API.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"table-order/internal/aggregate"
	"table-order/internal/models"
	"table-order/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type checkoutView struct {
	SessionID   string         `json:"sessionId"`
	TotalAmount int64          `json:"totalAmount"`
	Status      string         `json:"status"`
	Orders      []models.Order `json:"orders"`
}

type Checker struct {
	apiAddr string
	client  *http.Client
	metrics *telemetry.Metrics
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewChecker(apiAddr string, client *http.Client, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *Checker {
	return &Checker{apiAddr: apiAddr, client: client, metrics: metrics, log: log, tracer: tracer}
}

// HandleOrder logs a placed order. It never fails on a well-formed event.
func (ch *Checker) HandleOrder(ctx context.Context, _, value []byte) error {
	ctx, span := ch.tracer.Start(ctx, "ProcessOrderPlaced",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	var evt models.OrderPlaced
	if err := json.Unmarshal(value, &evt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal order")
		return err
	}

	span.SetAttributes(
		attribute.String("order.id", evt.OrderID),
		attribute.String("session.id", evt.SessionID),
		attribute.Int64("order.sub_total", evt.SubTotal),
	)
	span.SetStatus(codes.Ok, "")

	ch.log.Info("order observed",
		zap.String("order_id", evt.OrderID),
		zap.String("session_id", evt.SessionID),
		zap.String("table", tableOf(ctx, evt.ShopID, evt.TableNumber)),
		zap.Int("items", len(evt.Items)),
		zap.Int64("sub_total", evt.SubTotal),
		zap.Int64("session_total", evt.SessionTotal),
	)
	return nil
}

// HandleSettlement fetches the checkout of the settled session and compares
// the event total, the stored total and the sum of order subtotals.
func (ch *Checker) HandleSettlement(ctx context.Context, _, value []byte) error {
	ctx, span := ch.tracer.Start(ctx, "ProcessSessionSettled",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	var evt models.SessionSettled
	if err := json.Unmarshal(value, &evt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal settlement")
		return err
	}
	span.SetAttributes(
		attribute.String("session.id", evt.SessionID),
		attribute.Int64("session.total_amount", evt.TotalAmount),
	)

	view, err := ch.fetchCheckout(ctx, evt.SessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	ledger := aggregate.LedgerTotal(view.Orders)
	if view.TotalAmount != evt.TotalAmount || ledger != evt.TotalAmount || len(view.Orders) != evt.OrderCount {
		ch.metrics.SettlementMismatch.Add(ctx, 1, metric.WithAttributes(attribute.String("shop_id", evt.ShopID)))
		span.SetStatus(codes.Error, "ledger mismatch")
		ch.log.Warn("settlement does not match ledger",
			zap.String("session_id", evt.SessionID),
			zap.Int64("event_total", evt.TotalAmount),
			zap.Int64("stored_total", view.TotalAmount),
			zap.Int64("ledger_total", ledger),
			zap.Int("event_orders", evt.OrderCount),
			zap.Int("stored_orders", len(view.Orders)),
		)
		return nil
	}

	span.SetStatus(codes.Ok, "")
	ch.log.Info("settlement verified",
		zap.String("session_id", evt.SessionID),
		zap.String("table", tableOf(ctx, evt.ShopID, evt.TableNumber)),
		zap.Int64("total_amount", evt.TotalAmount),
		zap.Int("orders", evt.OrderCount),
	)
	return nil
}

func (ch *Checker) fetchCheckout(ctx context.Context, sessionID string) (checkoutView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		ch.apiAddr+"/checkout?sessionId="+url.QueryEscape(sessionID), nil)
	if err != nil {
		return checkoutView{}, err
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := ch.client.Do(req)
	if err != nil {
		return checkoutView{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return checkoutView{}, fmt.Errorf("table-api returned %d", resp.StatusCode)
	}

	var view checkoutView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return checkoutView{}, fmt.Errorf("failed to decode checkout: %w", err)
	}
	return view, nil
}

// tableOf prefers the table carried in baggage by the producer.
func tableOf(ctx context.Context, shopID string, tableNumber int) string {
	if v := baggage.FromContext(ctx).Member("table").Value(); v != "" {
		return v
	}
	return models.TableKey(shopID, tableNumber)
}
