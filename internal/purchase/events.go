package purchase

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated    = "OrderCreated"
	EventPaymentCaptured = "PaymentCaptured"
)

const (
	TopicOrderCreated    = "purchase.order.created"
	TopicPaymentCaptured = "purchase.payment.captured"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID        string `json:"order_id"`
	ProductID      string `json:"product_id"`
	BuyerEmail     string `json:"buyer_email"`
	Quantity       int    `json:"quantity"`
	Total          string `json:"total"`
	RemainingStock int    `json:"remaining_stock"`
}

type PaymentCapturedPayload struct {
	ProviderOrderID string          `json:"provider_order_id"`
	Capture         json.RawMessage `json:"capture"`
}

// Partition key = order id so events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
