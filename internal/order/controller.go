package order

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

type createOrderRequest struct {
	ShopID      string `json:"shopId"`
	TableNumber int    `json:"tableNumber"`
	SessionID   string `json:"sessionId"`
	Items       []int  `json:"items"`
}

type createOrderResponse struct {
	OrderID string `json:"orderId"`
	Total   int64  `json:"total"`
	Message string `json:"message"`
}

// Create serves POST /order.
func (ct *Controller) Create(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.CreateOrder",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return httperr.BadRequest(c, "invalid body")
	}

	member, _ := baggage.NewMember("table", models.TableKey(req.ShopID, req.TableNumber))
	bag, _ := baggage.New(member)
	ctx = baggage.ContextWithBaggage(ctx, bag)

	order, err := ct.useCase.Submit(ctx, SubmitRequest{
		ShopID:      req.ShopID,
		TableNumber: req.TableNumber,
		SessionID:   req.SessionID,
		Items:       req.Items,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if httperr.Status(err) == fiber.StatusInternalServerError {
			span.RecordError(err)
			ct.log.Error("failed to place order", zap.Error(err))
		} else {
			ct.log.Warn("order rejected",
				zap.String("session_id", req.SessionID),
				zap.Error(err),
			)
		}
		return httperr.Write(c, err)
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(createOrderResponse{
		OrderID: order.ID,
		Total:   order.SubTotal,
		Message: "order accepted",
	})
}

// History serves GET /order/history?shopId=&sessionId=.
func (ct *Controller) History(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.OrderHistory",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	summary, err := ct.useCase.History(ctx, c.Query("shopId"), c.Query("sessionId"))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if httperr.Status(err) == fiber.StatusInternalServerError {
			ct.log.Error("failed to load order history", zap.Error(err))
		}
		return httperr.Write(c, err)
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(summary)
}
