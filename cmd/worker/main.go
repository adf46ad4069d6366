package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Ashira-hub/backend-iliganmart/internal/audit"
	"github.com/Ashira-hub/backend-iliganmart/internal/config"
	kafkax "github.com/Ashira-hub/backend-iliganmart/internal/kafka"
	"github.com/Ashira-hub/backend-iliganmart/internal/logging"
	"github.com/Ashira-hub/backend-iliganmart/internal/purchase"
	"github.com/Ashira-hub/backend-iliganmart/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.MustNew(cfg.ServiceName+"-worker", cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &audit.Service{
		Redis:       rdb,
		Log:         log,
		ServiceName: cfg.ServiceName + "-worker",
	}

	group := getenv("AUDIT_GROUP", "purchase-audit")
	workers := atoi(os.Getenv("AUDIT_WORKERS"), 4)

	for _, topic := range []string{purchase.TopicOrderCreated, purchase.TopicPaymentCaptured} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, log)
		go func(topic string, cons *kafkax.Consumer) {
			log.Info("consumer started",
				zap.String("group", group),
				zap.String("topic", topic),
				zap.Int("workers", workers))
			if err := cons.Start(ctx, svc.HandleEvent); err != nil {
				log.Error("consumer exit", zap.String("topic", topic), zap.Error(err))
				cancel()
			}
		}(topic, cons)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumers")
	case <-ctx.Done():
	}
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
