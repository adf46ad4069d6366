package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/Ashira-hub/backend-iliganmart/internal/purchase"
)

// Every response shares one shape: a success flag plus either the resource
// payload or a structured error, regardless of which stage failed.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func writeSuccess(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, code int, kind, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &errorBody{Kind: kind, Detail: detail}})
}

// writePurchaseError maps a purchase failure onto its HTTP status. Unknown
// errors surface as STORE_UNAVAILABLE without leaking internals.
func writePurchaseError(w http.ResponseWriter, err error) {
	pe, ok := purchase.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, string(purchase.KindStoreUnavailable), "internal error")
		return
	}
	writeError(w, purchaseStatus(pe.Kind), string(pe.Kind), pe.Detail)
}

func purchaseStatus(kind purchase.Kind) int {
	switch kind {
	case purchase.KindInvalidInput, purchase.KindInsufficientStock:
		return http.StatusBadRequest
	case purchase.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
