package checkout

import (
	"context"
	"fmt"
	"strings"

	"table-order/internal/barcode"
	"table-order/internal/models"
	"table-order/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Checkout struct {
	SessionID   string         `json:"sessionId"`
	ShopID      string         `json:"shopId"`
	TableNumber int            `json:"tableNumber"`
	TotalAmount int64          `json:"totalAmount"`
	Status      string         `json:"status"`
	Orders      []models.Order `json:"orders"`
}

type UseCase struct {
	store  store.Store
	svg    barcode.SVGOptions
	log    *zap.Logger
	tracer trace.Tracer
}

func NewUseCase(st store.Store, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{store: st, svg: barcode.DefaultSVGOptions(), log: log, tracer: tracer}
}

func (uc *UseCase) session(ctx context.Context, sessionID string) (models.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.Session{}, fmt.Errorf("%w: sessionId is required", models.ErrInvalidInput)
	}
	return uc.store.GetSession(ctx, sessionID)
}

// Summary returns the ledger view of a session: the stored running total and
// every order recorded against it.
func (uc *UseCase) Summary(ctx context.Context, sessionID string) (Checkout, error) {
	ctx, span := uc.tracer.Start(ctx, "CheckoutSummary",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Checkout{}, err
	}
	orders, err := uc.store.ListOrders(ctx, sess.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Checkout{}, err
	}

	span.SetAttributes(
		attribute.Int64("session.total_amount", sess.TotalAmount),
		attribute.String("session.status", sess.Status.String()),
		attribute.Int("session.orders", len(orders)),
	)
	span.SetStatus(codes.Ok, "")
	return Checkout{
		SessionID:   sess.ID,
		ShopID:      sess.ShopID,
		TableNumber: sess.TableNumber,
		TotalAmount: sess.TotalAmount,
		Status:      sess.Status.String(),
		Orders:      orders,
	}, nil
}

// Barcode renders the session id as a Code-39 SVG for staff to scan.
func (uc *UseCase) Barcode(ctx context.Context, sessionID string) (string, error) {
	ctx, span := uc.tracer.Start(ctx, "CheckoutBarcode",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	sess, err := uc.session(ctx, sessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	code := barcode.Encode(sess.ID)
	if code.Normalized != "*"+sess.ID+"*" {
		uc.log.Warn("session id is not code39 safe, barcode will not scan back",
			zap.String("session_id", sess.ID),
			zap.String("encoded", code.Normalized),
		)
	}
	span.SetAttributes(attribute.Int("barcode.bars", len(code.Bars)))
	span.SetStatus(codes.Ok, "")
	return barcode.SVG(code, uc.svg), nil
}
