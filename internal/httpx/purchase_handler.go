package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ashira-hub/backend-iliganmart/internal/purchase"
	"github.com/Ashira-hub/backend-iliganmart/internal/redisx"
)

var validate = validatorv10.New()

// Purchaser is the slice of the purchase orchestrator the handler needs.
type Purchaser interface {
	Purchase(ctx context.Context, in purchase.PurchaseInput) (*purchase.ReservationResult, error)
	Order(ctx context.Context, orderID string) (*purchase.Order, error)
}

type PurchaseHandler struct {
	Service Purchaser
	Redis   *redis.Client // optional fast-path cache; nil disables it
	Log     *zap.Logger
}

type purchaseRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	BuyerEmail string `json:"buyer_email" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

func (h *PurchaseHandler) Register(r *chi.Mux) {
	r.Post("/purchase", h.purchase)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *PurchaseHandler) purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(purchase.KindInvalidInput), "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, string(purchase.KindInvalidInput), validationDetail(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Optional idempotency fast-path: a repeated key replays the stored
	// response instead of reserving again. The ledger stays authoritative.
	idemKey := r.Header.Get("Idempotency-Key")
	if cached := h.replayIdempotent(ctx, idemKey); cached != nil {
		h.Log.Info("idempotent purchase replay", zap.String("idempotency_key", idemKey))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	res, err := h.Service.Purchase(ctx, purchase.PurchaseInput{
		ProductID:  req.ProductID,
		BuyerEmail: req.BuyerEmail,
		Quantity:   req.Quantity,
		TraceID:    r.Header.Get("X-Request-Id"),
	})
	if err != nil {
		writePurchaseError(w, err)
		return
	}

	body, _ := json.Marshal(envelope{Success: true, Data: res})
	h.cacheAfterPurchase(ctx, idemKey, res, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *PurchaseHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, string(purchase.KindInvalidInput), "missing order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrder, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeSuccess(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	order, err := h.Service.Order(ctx, orderID)
	if err != nil {
		writePurchaseError(w, err)
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(order); err == nil {
			key := fmt.Sprintf(redisx.KeyOrder, orderID)
			_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
		}
	}
	writeSuccess(w, http.StatusOK, order)
}

func (h *PurchaseHandler) replayIdempotent(ctx context.Context, idemKey string) []byte {
	if idemKey == "" || h.Redis == nil {
		return nil
	}
	key := fmt.Sprintf(redisx.KeyIdemPurchase, idemKey)
	s, err := h.Redis.Get(ctx, key).Result()
	if err != nil || s == "" {
		return nil
	}
	return []byte(s)
}

func (h *PurchaseHandler) cacheAfterPurchase(ctx context.Context, idemKey string, res *purchase.ReservationResult, body []byte) {
	if h.Redis == nil {
		return
	}
	if idemKey != "" {
		key := fmt.Sprintf(redisx.KeyIdemPurchase, idemKey)
		_ = h.Redis.Set(ctx, key, body, redisx.TTLIdempotency).Err()
	}
	if b, err := json.Marshal(res.Order); err == nil {
		key := fmt.Sprintf(redisx.KeyOrder, res.Order.ID)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
	}
}

func validationDetail(err error) string {
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
