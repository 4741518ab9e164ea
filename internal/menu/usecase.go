package menu

import (
	"context"
	"fmt"
	"strings"

	"table-order/internal/aggregate"
	"table-order/internal/models"
	"table-order/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UseCase struct {
	store  store.Store
	log    *zap.Logger
	tracer trace.Tracer
}

func NewUseCase(st store.Store, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{store: st, log: log, tracer: tracer}
}

// Active lists the items a customer may browse.
func (uc *UseCase) Active(ctx context.Context, shopID string) ([]models.MenuItem, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return nil, fmt.Errorf("%w: shopId is required", models.ErrInvalidInput)
	}

	ctx, span := uc.tracer.Start(ctx, "ListMenu",
		trace.WithAttributes(attribute.String("shop.id", shopID)),
	)
	defer span.End()

	items, err := uc.store.ListMenu(ctx, shopID, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("menu.items", len(items)))
	span.SetStatus(codes.Ok, "")
	return items, nil
}

// Lookup resolves every item of the shop, sold-out ones included, so that
// past orders keep their names and prices.
func (uc *UseCase) Lookup(ctx context.Context, shopID string) (aggregate.Lookup, error) {
	ctx, span := uc.tracer.Start(ctx, "LoadMenuLookup",
		trace.WithAttributes(attribute.String("shop.id", shopID)),
	)
	defer span.End()

	items, err := uc.store.ListMenu(ctx, shopID, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return aggregate.NewLookup(items), nil
}
