package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	kafkax "github.com/Ashira-hub/backend-iliganmart/internal/kafka"
	"github.com/Ashira-hub/backend-iliganmart/internal/purchase"
)

func newTestService() (*Service, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return &Service{Log: zap.New(core), ServiceName: "audit-test"}, logs
}

func message(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	env := purchase.Envelope{
		EventID:      "ev-1",
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "purchase-api-test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleEventOrderCreated(t *testing.T) {
	svc, logs := newTestService()

	m := message(t, purchase.EventOrderCreated, purchase.OrderCreatedPayload{
		OrderID:        "order-1",
		ProductID:      "p1",
		BuyerEmail:     "a@b.com",
		Quantity:       2,
		Total:          "200.00",
		RemainingStock: 3,
	})
	require.NoError(t, svc.HandleEvent(context.Background(), m))

	entries := logs.FilterMessage("order recorded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "order-1", entries[0].ContextMap()["order_id"])
}

func TestHandleEventPaymentCaptured(t *testing.T) {
	svc, logs := newTestService()

	m := message(t, purchase.EventPaymentCaptured, purchase.PaymentCapturedPayload{
		ProviderOrderID: "PROV-1",
		Capture:         json.RawMessage(`{"status":"COMPLETED"}`),
	})
	require.NoError(t, svc.HandleEvent(context.Background(), m))

	entries := logs.FilterMessage("payment captured").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "PROV-1", entries[0].ContextMap()["provider_order_id"])
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	svc, logs := newTestService()

	m := message(t, "SomethingElse", map[string]string{"x": "y"})
	require.NoError(t, svc.HandleEvent(context.Background(), m))
	assert.Equal(t, 0, logs.Len())
}

func TestHandleEventMalformedEnvelope(t *testing.T) {
	svc, _ := newTestService()

	err := svc.HandleEvent(context.Background(), kafkago.Message{Value: []byte(`{not json`)})
	assert.Error(t, err)
}
