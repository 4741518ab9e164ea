package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"table-order/internal/aggregate"
	"table-order/internal/events"
	"table-order/internal/models"
	"table-order/internal/store"
	"table-order/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

// MenuLookup resolves the menu of one shop.
type MenuLookup interface {
	Lookup(ctx context.Context, shopID string) (aggregate.Lookup, error)
}

type UseCase struct {
	store     store.Store
	menu      MenuLookup
	publisher events.Publisher
	metrics   *telemetry.Metrics
	log       *zap.Logger
	tracer    trace.Tracer

	now func() time.Time
}

func NewUseCase(st store.Store, menu MenuLookup, publisher events.Publisher, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{
		store:     st,
		menu:      menu,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		tracer:    tracer,
		now:       time.Now,
	}
}

type SubmitRequest struct {
	ShopID      string
	TableNumber int
	SessionID   string
	Items       []int
}

func (r SubmitRequest) validate() error {
	if strings.TrimSpace(r.ShopID) == "" || r.TableNumber <= 0 || strings.TrimSpace(r.SessionID) == "" || len(r.Items) == 0 {
		return fmt.Errorf("%w: shopId, tableNumber, sessionId and items are required", models.ErrInvalidInput)
	}
	return nil
}

// Submit prices every item against the shop menu and records the order. The
// order is all or nothing: one unresolvable item rejects the whole request.
func (uc *UseCase) Submit(ctx context.Context, req SubmitRequest) (models.Order, error) {
	ctx, span := uc.tracer.Start(ctx, "SubmitOrder",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("shop.id", req.ShopID),
			attribute.Int("table.number", req.TableNumber),
			attribute.String("session.id", req.SessionID),
			attribute.Int("order.items_count", len(req.Items)),
		),
	)
	defer span.End()

	order, sess, err := uc.submit(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		uc.metrics.OrdersSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("status", statusOf(err))))
		if statusOf(err) == "error" {
			span.RecordError(err)
		}
		return models.Order{}, err
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int64("order.sub_total", order.SubTotal),
	)

	placed := models.OrderPlaced{
		OrderID:      order.ID,
		SessionID:    order.SessionID,
		ShopID:       order.ShopID,
		TableNumber:  order.TableNumber,
		Items:        order.Items,
		SubTotal:     order.SubTotal,
		SessionTotal: sess.TotalAmount,
		CreatedAt:    order.CreatedAt,
	}
	if err := uc.publisher.Publish(ctx, order.SessionID, placed); err != nil {
		// The order is already recorded; the event is best effort.
		span.RecordError(err)
		uc.log.Warn("failed to publish order event",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	uc.metrics.OrdersSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	uc.metrics.OrderValue.Record(ctx, order.SubTotal)

	span.SetStatus(codes.Ok, "")
	uc.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("session_id", order.SessionID),
		zap.String("shop_id", order.ShopID),
		zap.Int("table_number", order.TableNumber),
		zap.Int64("sub_total", order.SubTotal),
		zap.Int64("session_total", sess.TotalAmount),
	)
	return order, nil
}

func (uc *UseCase) submit(ctx context.Context, req SubmitRequest) (models.Order, models.Session, error) {
	if err := req.validate(); err != nil {
		return models.Order{}, models.Session{}, err
	}

	sess, err := uc.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return models.Order{}, models.Session{}, err
	}
	if sess.ShopID != req.ShopID || sess.TableNumber != req.TableNumber {
		return models.Order{}, models.Session{}, fmt.Errorf("%w: session %s belongs to another table", models.ErrInvalidInput, sess.ID)
	}
	if !sess.AcceptsOrders() {
		return models.Order{}, models.Session{}, models.ErrSessionClosed
	}

	subTotal, err := uc.price(ctx, req.ShopID, req.Items)
	if err != nil {
		return models.Order{}, models.Session{}, err
	}

	order := models.Order{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		ShopID:      sess.ShopID,
		TableNumber: sess.TableNumber,
		Items:       append([]int(nil), req.Items...),
		SubTotal:    subTotal,
		CreatedAt:   uc.now().UTC(),
	}

	_, appendSpan := uc.tracer.Start(ctx, "AppendOrder")
	sess, err = uc.store.AppendOrder(ctx, order)
	if err != nil {
		appendSpan.SetStatus(codes.Error, err.Error())
		appendSpan.End()
		return models.Order{}, models.Session{}, err
	}
	appendSpan.SetAttributes(attribute.Int64("session.total_amount", sess.TotalAmount))
	appendSpan.End()

	return order, sess, nil
}

func (uc *UseCase) price(ctx context.Context, shopID string, items []int) (int64, error) {
	ctx, span := uc.tracer.Start(ctx, "PriceItems")
	defer span.End()

	lookup, err := uc.menu.Lookup(ctx, shopID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	var subTotal int64
	for _, n := range items {
		it, ok := lookup.Get(n)
		if !ok || it.Price <= 0 {
			span.SetStatus(codes.Error, "unknown menu item")
			span.SetAttributes(attribute.Int("order.rejected_item", n))
			return 0, fmt.Errorf("%w: %d", models.ErrUnknownMenuItem, n)
		}
		subTotal += it.Price
	}
	span.SetStatus(codes.Ok, "")
	return subTotal, nil
}

// History folds every order of a session into per-item lines priced with the
// current menu.
func (uc *UseCase) History(ctx context.Context, shopID, sessionID string) (aggregate.Summary, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(sessionID) == "" {
		return aggregate.Summary{}, fmt.Errorf("%w: sessionId and shopId are required", models.ErrInvalidInput)
	}

	ctx, span := uc.tracer.Start(ctx, "OrderHistory",
		trace.WithAttributes(
			attribute.String("shop.id", shopID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	lookup, err := uc.menu.Lookup(ctx, shopID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return aggregate.Summary{}, err
	}
	orders, err := uc.store.ListOrders(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return aggregate.Summary{}, err
	}

	summary := aggregate.Summarize(orders, lookup)
	span.SetAttributes(
		attribute.Int("history.orders", len(orders)),
		attribute.Int("history.total_count", summary.TotalCount),
	)
	span.SetStatus(codes.Ok, "")
	return summary, nil
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnknownMenuItem):
		return "rejected"
	case errors.Is(err, models.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, models.ErrSessionClosed):
		return "closed"
	default:
		return "error"
	}
}
