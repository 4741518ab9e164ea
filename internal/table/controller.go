package table

import (
	"table-order/internal/httperr"
	"table-order/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/baggage"
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

type startRequest struct {
	ShopID      string `json:"shopId"`
	TableNumber int    `json:"tableNumber"`
}

type startResponse struct {
	ShopID      string `json:"shopId"`
	TableNumber int    `json:"tableNumber"`
	SessionID   string `json:"sessionId"`
}

// Start serves POST /session/start.
func (ct *Controller) Start(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.StartSession",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return httperr.BadRequest(c, "invalid body")
	}

	member, _ := baggage.NewMember("table", models.TableKey(req.ShopID, req.TableNumber))
	bag, _ := baggage.New(member)
	ctx = baggage.ContextWithBaggage(ctx, bag)

	sess, _, err := ct.useCase.Start(ctx, req.ShopID, req.TableNumber)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if httperr.Status(err) == fiber.StatusInternalServerError {
			span.RecordError(err)
			ct.log.Error("failed to start session", zap.Error(err))
		}
		return httperr.Write(c, err)
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(startResponse{
		ShopID:      sess.ShopID,
		TableNumber: sess.TableNumber,
		SessionID:   sess.ID,
	})
}
