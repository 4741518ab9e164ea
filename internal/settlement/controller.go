package settlement

import (
	"table-order/internal/httperr"
	"table-order/internal/models"

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

type settleRequest struct {
	SessionID string `json:"sessionId"`
	ShopID    string `json:"shopId"`
	Password  string `json:"password"`
}

type settleResponse struct {
	SessionID   string         `json:"sessionId"`
	ShopID      string         `json:"shopId"`
	TableNumber int            `json:"tableNumber"`
	TotalAmount int64          `json:"totalAmount"`
	Status      string         `json:"status"`
	Orders      []models.Order `json:"orders"`
}

// Settle serves POST /admin/settle.
func (ct *Controller) Settle(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.SettleSession",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req settleRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return httperr.BadRequest(c, "invalid body")
	}

	res, err := ct.useCase.Settle(ctx, SettleRequest{
		SessionID: req.SessionID,
		ShopID:    req.ShopID,
		Password:  req.Password,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch httperr.Status(err) {
		case fiber.StatusInternalServerError:
			span.RecordError(err)
			ct.log.Error("failed to settle session", zap.Error(err))
		case fiber.StatusUnauthorized:
			ct.log.Warn("settle rejected: bad credential", zap.String("session_id", req.SessionID))
		}
		return httperr.Write(c, err)
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(settleResponse{
		SessionID:   res.Session.ID,
		ShopID:      res.Session.ShopID,
		TableNumber: res.Session.TableNumber,
		TotalAmount: res.Session.TotalAmount,
		Status:      res.Session.Status.String(),
		Orders:      res.Orders,
	})
}
