package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/Ashira-hub/backend-iliganmart/internal/kafka"
)

// EventPublisher is satisfied by kafkax.Producer.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service is the purchase orchestrator: it validates input, runs the
// reservation against the ledger, and publishes the order event. Stock
// reservation and payment capture stay two independently callable flows;
// a committed reservation is never rolled back by a later payment failure.
type Service struct {
	ledger Ledger
	events EventPublisher
	log    *zap.Logger
	name   string
}

func NewService(ledger Ledger, events EventPublisher, log *zap.Logger, name string) *Service {
	return &Service{ledger: ledger, events: events, log: log, name: name}
}

type PurchaseInput struct {
	ProductID  string
	BuyerEmail string
	Quantity   int
	TraceID    string
}

// Purchase reserves stock and records the order. Input validation happens
// before any store access.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (*ReservationResult, error) {
	if in.ProductID == "" {
		return nil, invalidInput("product id is required")
	}
	email := NormalizeEmail(in.BuyerEmail)
	if email == "" {
		return nil, invalidInput("buyer email is required")
	}
	if in.Quantity <= 0 {
		return nil, invalidInput("quantity must be a positive integer")
	}

	res, err := s.ledger.ReserveAndOrder(ctx, in.ProductID, email, in.Quantity)
	if err != nil {
		return nil, err
	}

	s.publishOrderCreated(res, in.TraceID)
	s.log.Info("order created",
		zap.String("order_id", res.Order.ID),
		zap.String("product_id", res.Order.ProductID),
		zap.Int("quantity", res.Order.Quantity),
		zap.String("total", res.Order.Total.String()),
		zap.Int("remaining_stock", res.RemainingStock))
	return res, nil
}

// Order returns a previously created order.
func (s *Service) Order(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, invalidInput("order id is required")
	}
	return s.ledger.GetOrder(ctx, orderID)
}

func (s *Service) publishOrderCreated(res *ReservationResult, traceID string) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.name,
		TraceID:       traceID,
		CorrelationID: res.Order.ID,
		Payload: kafkax.MustMarshal(OrderCreatedPayload{
			OrderID:        res.Order.ID,
			ProductID:      res.Order.ProductID,
			BuyerEmail:     res.Order.BuyerEmail,
			Quantity:       res.Order.Quantity,
			Total:          res.Order.Total.String(),
			RemainingStock: res.RemainingStock,
		}),
	}
	s.events.Publish(PartitionKey(res.Order.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
