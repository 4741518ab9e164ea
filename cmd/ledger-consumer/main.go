package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"table-order/internal/config"
	"table-order/internal/kafka"
	"table-order/internal/ledger"
	"table-order/internal/telemetry"

	"go.uber.org/zap"
)

const (
	orderGroup      = "ledger-orders"
	settlementGroup = "ledger-settlements"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log, tracer, meter, shutdown, err := telemetry.Setup(ctx, "ledger-consumer", telemetry.Options{
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

	if cfg.KafkaBroker == "" {
		log.Fatal("KAFKA_BROKER is required")
	}
	brokers := []string{cfg.KafkaBroker}

	if err := kafka.EnsureTopics(ctx, cfg.KafkaBroker, kafka.DefaultTopics...); err != nil {
		log.Warn("failed to create topics", zap.Error(err))
	}

	client := &http.Client{Timeout: 5 * time.Second}
	checker := ledger.NewChecker(cfg.TableAPIAddr, client, metrics, log, tracer)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down ledger-consumer...")
		cancel()
	}()

	orderConsumer := kafka.NewConsumer(brokers, kafka.TopicOrders, orderGroup, metrics)
	defer orderConsumer.Close()

	settlementConsumer := kafka.NewConsumer(brokers, kafka.TopicSettlements, settlementGroup, metrics)
	defer settlementConsumer.Close()

	log.Info("consumers started",
		zap.String("order_topic", kafka.TopicOrders),
		zap.String("settlement_topic", kafka.TopicSettlements),
		zap.String("table_api", cfg.TableAPIAddr),
	)

	go func() {
		if err := settlementConsumer.Listen(ctx, checker.HandleSettlement); err != nil {
			log.Error("settlement consumer error", zap.Error(err))
		}
	}()

	if err := orderConsumer.Listen(ctx, checker.HandleOrder); err != nil {
		log.Error("order consumer error", zap.Error(err))
	}
}
