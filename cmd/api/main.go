package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Ashira-hub/backend-iliganmart/internal/config"
	"github.com/Ashira-hub/backend-iliganmart/internal/httpx"
	kafkax "github.com/Ashira-hub/backend-iliganmart/internal/kafka"
	"github.com/Ashira-hub/backend-iliganmart/internal/logging"
	"github.com/Ashira-hub/backend-iliganmart/internal/payment"
	"github.com/Ashira-hub/backend-iliganmart/internal/postgres"
	"github.com/Ashira-hub/backend-iliganmart/internal/purchase"
	"github.com/Ashira-hub/backend-iliganmart/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.MustNew(cfg.ServiceName, cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	prodOrders := kafkax.NewProducer(cfg.KafkaBrokers, purchase.TopicOrderCreated, 1024, log)
	prodOrders.Start(ctx)
	prodCaptures := kafkax.NewProducer(cfg.KafkaBrokers, purchase.TopicPaymentCaptured, 1024, log)
	prodCaptures.Start(ctx)

	// Core wiring
	ledger := &purchase.Store{DB: db}
	svc := purchase.NewService(ledger, prodOrders, log, cfg.ServiceName)
	gateway := payment.NewClient(payment.Config{
		BaseURL:      cfg.PayPalBaseURL,
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		Currency:     cfg.Currency,
		Timeout:      cfg.PayPalTimeout,
	})

	router := httpx.NewRouter()
	ph := &httpx.PurchaseHandler{Service: svc, Redis: rdb, Log: log}
	ph.Register(router)
	pay := &httpx.PaymentHandler{Gateway: gateway, Producer: prodCaptures, Log: log, Service: cfg.ServiceName}
	pay.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	prodOrders.Close()
	prodCaptures.Close()
	prodOrders.WaitClosed()
	prodCaptures.WaitClosed()
}
