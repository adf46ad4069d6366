// Package audit consumes purchase events: it keeps the order cache warm and
// writes the reconciliation trail that pairs ledger reservations with
// provider captures. It never mutates the ledger; payment failures do not
// release reserved stock here.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/Ashira-hub/backend-iliganmart/internal/kafka"
	"github.com/Ashira-hub/backend-iliganmart/internal/purchase"
	"github.com/Ashira-hub/backend-iliganmart/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

// HandleEvent is mounted as the consumer handler for both purchase topics.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env purchase.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	if dup, err := s.seen(ctx, env.EventID); err == nil && dup {
		return nil
	}

	switch env.EventType {
	case purchase.EventOrderCreated:
		return s.handleOrderCreated(ctx, env)
	case purchase.EventPaymentCaptured:
		return s.handlePaymentCaptured(env)
	default:
		return nil // ignore
	}
}

func (s *Service) handleOrderCreated(ctx context.Context, env purchase.Envelope) error {
	p, err := kafkax.UnwrapPayload[purchase.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrder, p.OrderID)
		b := kafkax.MustMarshal(map[string]any{
			"id":          p.OrderID,
			"product_id":  p.ProductID,
			"buyer_email": p.BuyerEmail,
			"quantity":    p.Quantity,
			"total":       p.Total,
			"created_at":  env.OccurredAt,
		})
		_ = s.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
	}

	s.Log.Info("order recorded",
		zap.String("order_id", p.OrderID),
		zap.String("product_id", p.ProductID),
		zap.Int("quantity", p.Quantity),
		zap.String("total", p.Total),
		zap.Int("remaining_stock", p.RemainingStock))
	return nil
}

func (s *Service) handlePaymentCaptured(env purchase.Envelope) error {
	p, err := kafkax.UnwrapPayload[purchase.PaymentCapturedPayload](env.Payload)
	if err != nil {
		return err
	}

	// Reconciliation trail: captures arrive with provider ids only; pairing
	// them with ledger orders is an offline concern.
	s.Log.Info("payment captured",
		zap.String("provider_order_id", p.ProviderOrderID),
		zap.String("trace_id", env.TraceID),
		zap.Time("occurred_at", env.OccurredAt))
	return nil
}

func (s *Service) seen(ctx context.Context, eventID string) (bool, error) {
	if s.Redis == nil || eventID == "" {
		return false, nil
	}
	key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID)
	exists, err := redisx.Exists(ctx, s.Redis, key)
	if err != nil {
		return false, err
	}
	if !exists {
		_ = s.Redis.Set(ctx, key, "1", redisx.TTLDedup).Err()
	}
	return exists, nil
}
