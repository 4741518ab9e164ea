package checkout

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

// Get serves GET /checkout?sessionId=.
func (ct *Controller) Get(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.Checkout",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	out, err := ct.useCase.Summary(ctx, c.Query("sessionId"))
	if err != nil {
		return ct.fail(c, span, err)
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(out)
}

// Barcode serves GET /checkout/barcode?sessionId= as image/svg+xml.
func (ct *Controller) Barcode(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.CheckoutBarcode",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	svg, err := ct.useCase.Barcode(ctx, c.Query("sessionId"))
	if err != nil {
		return ct.fail(c, span, err)
	}

	span.SetStatus(codes.Ok, "")
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.SendString(svg)
}

func (ct *Controller) fail(c *fiber.Ctx, span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	if httperr.Status(err) == fiber.StatusInternalServerError {
		span.RecordError(err)
		ct.log.Error("checkout failed", zap.Error(err))
	}
	return httperr.Write(c, err)
}
