package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"table-order/internal/config"
	"table-order/internal/events"
	"table-order/internal/kafka"
	"table-order/internal/menu"
	"table-order/internal/rabbitmq"
	"table-order/internal/server"
	"table-order/internal/store/driver"
	"table-order/internal/telemetry"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log, tracer, meter, shutdown, err := telemetry.Setup(ctx, "table-api", telemetry.Options{
		Enabled:  cfg.TelemetryEnabled,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		panic("failed to create metrics: " + err.Error())
	}

	st, err := driver.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.Close()

	if cfg.MenuSeed != "" {
		if _, err := menu.SeedFile(ctx, st, cfg.MenuSeed, log); err != nil {
			log.Fatal("failed to seed menu", zap.Error(err))
		}
	}

	orders := events.Multi{}
	settlements := events.Multi{}

	if cfg.KafkaBroker != "" {
		if err := kafka.EnsureTopics(ctx, cfg.KafkaBroker, kafka.DefaultTopics...); err != nil {
			log.Warn("failed to create topics", zap.Error(err))
		}
		orderProducer := kafka.NewProducer([]string{cfg.KafkaBroker}, kafka.TopicOrders, metrics)
		defer orderProducer.Close()
		settleProducer := kafka.NewProducer([]string{cfg.KafkaBroker}, kafka.TopicSettlements, metrics)
		defer settleProducer.Close()

		orders = append(orders, orderProducer)
		settlements = append(settlements, settleProducer)
		log.Info("kafka events enabled", zap.String("broker", cfg.KafkaBroker))
	}

	checks := map[string]func() error{}
	if cfg.AMQPURL != "" {
		client, err := rabbitmq.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer client.Close()
		if err := client.DeclareKitchen(); err != nil {
			log.Fatal("failed to declare kitchen topology", zap.Error(err))
		}
		orders = append(orders, rabbitmq.NewTicketPublisher(client, metrics))
		checks["rabbitmq"] = client.Ping
		log.Info("kitchen tickets enabled", zap.String("exchange", rabbitmq.KitchenExchange))
	}

	app := server.New(server.Deps{
		Store:           st,
		Orders:          orders,
		Settlements:     settlements,
		AdminPassword:   cfg.AdminPassword,
		MintAfterSettle: cfg.MintAfterSettle,
		Checks:          checks,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PublishTimeout:  cfg.PublishTimeout,
		Metrics:         metrics,
		Log:             log,
		Tracer:          tracer,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down table-api...")
		_ = app.Shutdown()
		cancel()
	}()

	log.Info("table-api listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.StoreDriver),
	)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Error("server error", zap.Error(err))
	}
}
