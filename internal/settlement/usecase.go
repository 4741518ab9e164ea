package settlement

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"table-order/internal/events"
	"table-order/internal/models"
	"table-order/internal/store"
	"table-order/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UseCase struct {
	store     store.Store
	password  string
	publisher events.Publisher
	metrics   *telemetry.Metrics
	log       *zap.Logger
	tracer    trace.Tracer

	now func() time.Time
}

func NewUseCase(st store.Store, adminPassword string, publisher events.Publisher, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{
		store:     st,
		password:  strings.TrimSpace(adminPassword),
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		tracer:    tracer,
		now:       time.Now,
	}
}

type SettleRequest struct {
	SessionID string
	ShopID    string
	Password  string
}

type Result struct {
	Session models.Session
	Orders  []models.Order
	// Settled is false when the session had already been paid.
	Settled bool
}

func (uc *UseCase) authorized(password string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(password)), []byte(uc.password)) == 1
}

// Settle closes a session: the total is recomputed from the order log, the
// session becomes paid and its table is released. Settling a paid session
// again returns the same snapshot.
func (uc *UseCase) Settle(ctx context.Context, req SettleRequest) (Result, error) {
	ctx, span := uc.tracer.Start(ctx, "SettleSession",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("session.id", req.SessionID),
			attribute.String("shop.id", req.ShopID),
		),
	)
	defer span.End()

	res, err := uc.settle(ctx, req)
	if err != nil {
		status := "error"
		switch {
		case isUnauthorized(err):
			status = "unauthorized"
		case isClientError(err):
			status = "rejected"
		default:
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		uc.metrics.SessionsSettled.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
		return Result{}, err
	}

	status := "already_paid"
	if res.Settled {
		status = "settled"
		uc.metrics.SettledAmount.Record(ctx, res.Session.TotalAmount)
		uc.publish(ctx, res)
	}
	uc.metrics.SessionsSettled.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))

	span.SetAttributes(
		attribute.Int64("session.total_amount", res.Session.TotalAmount),
		attribute.Int("session.orders", len(res.Orders)),
		attribute.String("settlement.status", status),
	)
	span.SetStatus(codes.Ok, "")

	uc.log.Info("session settled",
		zap.String("session_id", res.Session.ID),
		zap.String("shop_id", res.Session.ShopID),
		zap.Int("table_number", res.Session.TableNumber),
		zap.Int64("total_amount", res.Session.TotalAmount),
		zap.Int("orders", len(res.Orders)),
		zap.String("status", status),
	)
	return res, nil
}

func (uc *UseCase) settle(ctx context.Context, req SettleRequest) (Result, error) {
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.ShopID) == "" || strings.TrimSpace(req.Password) == "" {
		return Result{}, fmt.Errorf("%w: sessionId, shopId and password are required", models.ErrInvalidInput)
	}
	if !uc.authorized(req.Password) {
		return Result{}, models.ErrUnauthorized
	}

	sess, err := uc.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return Result{}, err
	}
	if sess.ShopID != req.ShopID {
		return Result{}, fmt.Errorf("%w: session %s belongs to another shop", models.ErrInvalidInput, sess.ID)
	}

	// Postgres keeps microseconds; truncate so the stamp compares equal after a round trip.
	now := uc.now().UTC().Truncate(time.Microsecond)
	sess, orders, err := uc.store.SettleSession(ctx, req.SessionID, now)
	if err != nil {
		return Result{}, err
	}

	settled := sess.PaidAt != nil && sess.PaidAt.Equal(now)
	return Result{Session: sess, Orders: orders, Settled: settled}, nil
}

func (uc *UseCase) publish(ctx context.Context, res Result) {
	member, _ := baggage.NewMember("table", models.TableKey(res.Session.ShopID, res.Session.TableNumber))
	bag, _ := baggage.New(member)
	ctx = baggage.ContextWithBaggage(ctx, bag)

	evt := models.SessionSettled{
		SessionID:   res.Session.ID,
		ShopID:      res.Session.ShopID,
		TableNumber: res.Session.TableNumber,
		TotalAmount: res.Session.TotalAmount,
		OrderCount:  len(res.Orders),
		PaidAt:      *res.Session.PaidAt,
	}
	if err := uc.publisher.Publish(ctx, evt.SessionID, evt); err != nil {
		uc.log.Warn("failed to publish settlement event",
			zap.String("session_id", evt.SessionID),
			zap.Error(err),
		)
	}
}
