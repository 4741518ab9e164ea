package menu

import (
	"table-order/internal/httperr"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Controller struct {
	useCase *UseCase
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewController(useCase *UseCase, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{useCase: useCase, log: log, tracer: tracer}
}

// List serves GET /menu?shopId=.
func (ct *Controller) List(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.ListMenu",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	items, err := ct.useCase.Active(ctx, c.Query("shopId"))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if httperr.Status(err) == fiber.StatusInternalServerError {
			ct.log.Error("failed to list menu", zap.Error(err))
		}
		return httperr.Write(c, err)
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(items)
}
