package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	kafkax "github.com/Ashira-hub/backend-iliganmart/internal/kafka"
	"github.com/Ashira-hub/backend-iliganmart/internal/payment"
	"github.com/Ashira-hub/backend-iliganmart/internal/purchase"
)

// PaymentGateway is the slice of the provider adapter the handler needs.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal) (*payment.ProviderOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (*payment.CaptureResult, error)
}

type PaymentHandler struct {
	Gateway  PaymentGateway
	Producer purchase.EventPublisher
	Log      *zap.Logger
	Service  string
}

type createPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type capturePaymentRequest struct {
	ProviderOrderID string `json:"provider_order_id"`
}

func (h *PaymentHandler) Register(r *chi.Mux) {
	r.Post("/payment/create", h.create)
	r.Post("/payment/capture", h.capture)
}

func (h *PaymentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(payment.KindInvalidInput), "invalid json body")
		return
	}

	po, err := h.Gateway.CreateOrder(r.Context(), req.Amount)
	if err != nil {
		h.writePaymentError(w, err, createStatus)
		return
	}
	writeSuccess(w, http.StatusOK, json.RawMessage(po.Raw))
}

func (h *PaymentHandler) capture(w http.ResponseWriter, r *http.Request) {
	var req capturePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(payment.KindInvalidInput), "invalid json body")
		return
	}

	res, err := h.Gateway.CaptureOrder(r.Context(), req.ProviderOrderID)
	if err != nil {
		h.writePaymentError(w, err, captureStatus)
		return
	}

	h.publishCaptured(req.ProviderOrderID, res.Raw, r.Header.Get("X-Request-Id"))
	writeSuccess(w, http.StatusOK, json.RawMessage(res.Raw))
}

func (h *PaymentHandler) writePaymentError(w http.ResponseWriter, err error, status func(payment.Kind) int) {
	pe, ok := payment.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, string(payment.KindProviderUnavailable), "internal error")
		return
	}
	detail := pe.Detail
	if len(pe.Body) > 0 {
		detail = detail + ": " + string(pe.Body)
	}
	h.Log.Warn("payment operation failed",
		zap.String("kind", string(pe.Kind)),
		zap.Int("provider_status", pe.Status),
		zap.Error(pe))
	writeError(w, status(pe.Kind), string(pe.Kind), detail)
}

func createStatus(kind payment.Kind) int {
	switch kind {
	case payment.KindInvalidInput, payment.KindProviderRejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func captureStatus(kind payment.Kind) int {
	switch kind {
	case payment.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *PaymentHandler) publishCaptured(providerOrderID string, raw json.RawMessage, traceID string) {
	ev := purchase.Envelope{
		EventID:       uuid.NewString(),
		EventType:     purchase.EventPaymentCaptured,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: providerOrderID,
		Payload: kafkax.MustMarshal(purchase.PaymentCapturedPayload{
			ProviderOrderID: providerOrderID,
			Capture:         raw,
		}),
	}
	h.Producer.Publish(purchase.PartitionKey(providerOrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(purchase.EventPaymentCaptured)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
