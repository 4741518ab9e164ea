package table

import (
	"context"
	"fmt"
	"strings"
	"time"

	"table-order/internal/models"
	"table-order/internal/store"
	"table-order/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Options struct {
	// MintAfterSettle replaces a settled bound session with a fresh one
	// instead of handing the paid session back.
	MintAfterSettle bool
}

type UseCase struct {
	store   store.Store
	opts    Options
	metrics *telemetry.Metrics
	log     *zap.Logger
	tracer  trace.Tracer

	now   func() time.Time
	newID func() string
}

func NewUseCase(st store.Store, opts Options, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{
		store:   st,
		opts:    opts,
		metrics: metrics,
		log:     log,
		tracer:  tracer,
		now:     time.Now,
		newID:   NewSessionID,
	}
}

// NewSessionID returns an upper-case UUID. Every rune of it is in the Code-39
// alphabet, so the checkout barcode scans back to the same id.
func NewSessionID() string {
	return strings.ToUpper(uuid.NewString())
}

// Start returns the session bound to a table, creating one when the table has
// none. A paid bound session is returned as is unless MintAfterSettle is set.
func (uc *UseCase) Start(ctx context.Context, shopID string, tableNumber int) (models.Session, bool, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" || tableNumber <= 0 {
		return models.Session{}, false, fmt.Errorf("%w: shopId and tableNumber are required", models.ErrInvalidInput)
	}

	ctx, span := uc.tracer.Start(ctx, "StartSession",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("shop.id", shopID),
			attribute.Int("table.number", tableNumber),
		),
	)
	defer span.End()

	sess, created, err := uc.store.StartSession(ctx, shopID, tableNumber, uc.decide(shopID, tableNumber))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.metrics.SessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		return models.Session{}, false, err
	}

	outcome := "reused"
	if created {
		outcome = "created"
	}
	uc.metrics.SessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.String("session.outcome", outcome),
	)
	span.SetStatus(codes.Ok, "")

	uc.log.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("shop_id", shopID),
		zap.Int("table_number", tableNumber),
		zap.String("outcome", outcome),
	)
	return sess, created, nil
}

func (uc *UseCase) decide(shopID string, tableNumber int) store.StartFunc {
	return func(_ *models.TableBinding, current *models.Session) (*models.Session, error) {
		if current != nil && (current.AcceptsOrders() || !uc.opts.MintAfterSettle) {
			return nil, nil
		}
		sess := models.NewSession(uc.newID(), shopID, tableNumber, uc.now().UTC())
		return &sess, nil
	}
}
