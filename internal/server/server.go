package server

import (
	"errors"
	"time"

	"table-order/internal/checkout"
	"table-order/internal/events"
	"table-order/internal/menu"
	"table-order/internal/order"
	"table-order/internal/settlement"
	"table-order/internal/store"
	"table-order/internal/table"
	"table-order/internal/telemetry"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultPublishTimeout = 2 * time.Second

type Deps struct {
	Store store.Store

	// Orders receives OrderPlaced, Settlements receives SessionSettled.
	Orders      events.Publisher
	Settlements events.Publisher

	AdminPassword   string
	MintAfterSettle bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PublishTimeout  time.Duration

	// Checks are probed by /health; any failure turns it into a 503.
	Checks map[string]func() error

	Metrics *telemetry.Metrics
	Log     *zap.Logger
	Tracer  trace.Tracer
}

// New wires every use case and controller onto one fiber app.
func New(d Deps) *fiber.App {
	if d.Orders == nil {
		d.Orders = events.Nop{}
	}
	if d.Settlements == nil {
		d.Settlements = events.Nop{}
	}
	if d.PublishTimeout <= 0 {
		d.PublishTimeout = DefaultPublishTimeout
	}
	d.Orders = events.WithTimeout(d.Orders, d.PublishTimeout)
	d.Settlements = events.WithTimeout(d.Settlements, d.PublishTimeout)

	menuUC := menu.NewUseCase(d.Store, d.Log, d.Tracer)
	tableUC := table.NewUseCase(d.Store, table.Options{MintAfterSettle: d.MintAfterSettle}, d.Metrics, d.Log, d.Tracer)
	orderUC := order.NewUseCase(d.Store, menuUC, d.Orders, d.Metrics, d.Log, d.Tracer)
	settleUC := settlement.NewUseCase(d.Store, d.AdminPassword, d.Settlements, d.Metrics, d.Log, d.Tracer)
	checkoutUC := checkout.NewUseCase(d.Store, d.Log, d.Tracer)

	menuCtrl := menu.NewController(menuUC, d.Log, d.Tracer)
	tableCtrl := table.NewController(tableUC, d.Log, d.Tracer)
	orderCtrl := order.NewController(orderUC, d.Log, d.Tracer)
	settleCtrl := settlement.NewController(settleUC, d.Log, d.Tracer)
	checkoutCtrl := checkout.NewController(checkoutUC, d.Log, d.Tracer)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           d.ReadTimeout,
		WriteTimeout:          d.WriteTimeout,
		ErrorHandler:          errorHandler(d.Log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(otelfiber.Middleware())
	app.Use(accessLog(d.Log))

	app.Get("/health", health(d.Checks))

	app.Post("/session/start", tableCtrl.Start)
	app.Get("/menu", menuCtrl.List)
	app.Post("/order", orderCtrl.Create)
	app.Get("/order/history", orderCtrl.History)
	app.Get("/checkout", checkoutCtrl.Get)
	app.Get("/checkout/barcode", checkoutCtrl.Barcode)
	app.Post("/admin/settle", settleCtrl.Settle)

	return app
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}

func accessLog(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		)
		return err
	}
}

func health(checks map[string]func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		failed := fiber.Map{}
		for name, check := range checks {
			if err := check(); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "checks": failed})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
