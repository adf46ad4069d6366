package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	tokenCalls   atomic.Int32
	createCalls  atomic.Int32
	captureCalls atomic.Int32

	tokenStatus   int
	createStatus  int
	captureStatus int

	lastCreateBody []byte
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{tokenStatus: 200, createStatus: 201, captureStatus: 201}
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		if f.tokenStatus != 200 {
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		f.createCalls.Add(1)
		f.lastCreateBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.createStatus)
		if f.createStatus >= 400 {
			_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"CURRENCY_NOT_SUPPORTED"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"PROV-ORDER-1","status":"CREATED"}`))
	})
	mux.HandleFunc("/v2/checkout/orders/", func(w http.ResponseWriter, r *http.Request) {
		f.captureCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.captureStatus)
		if f.captureStatus >= 400 {
			_, _ = w.Write([]byte(`{"name":"ORDER_ALREADY_CAPTURED"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"PROV-ORDER-1","status":"COMPLETED"}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:      srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Currency:     "PHP",
		Timeout:      2 * time.Second,
	})
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	f := newFakeProvider()
	c := newTestClient(t, f)

	for _, amount := range []string{"0", "-10.00"} {
		_, err := c.CreateOrder(context.Background(), decimal.RequireFromString(amount))
		pe, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindInvalidInput, pe.Kind)
	}
	assert.Equal(t, int32(0), f.tokenCalls.Load(), "no network call for invalid amount")
	assert.Equal(t, int32(0), f.createCalls.Load())
}

func TestCreateOrderSuccess(t *testing.T) {
	f := newFakeProvider()
	c := newTestClient(t, f)

	po, err := c.CreateOrder(context.Background(), decimal.RequireFromString("150.5"))

	require.NoError(t, err)
	assert.Equal(t, "PROV-ORDER-1", po.ID)
	assert.Equal(t, "CREATED", po.Status)
	assert.NotEmpty(t, po.Raw)
	assert.Equal(t, int32(1), f.tokenCalls.Load(), "one token round trip per operation")
	assert.Equal(t, int32(1), f.createCalls.Load())

	var body struct {
		Intent        string `json:"intent"`
		PurchaseUnits []struct {
			Amount map[string]string `json:"amount"`
		} `json:"purchase_units"`
	}
	require.NoError(t, json.Unmarshal(f.lastCreateBody, &body))
	assert.Equal(t, "CAPTURE", body.Intent)
	require.Len(t, body.PurchaseUnits, 1)
	assert.Equal(t, "150.50", body.PurchaseUnits[0].Amount["value"])
	assert.Equal(t, "PHP", body.PurchaseUnits[0].Amount["currency_code"])
}

func TestCreateOrderProviderRejected(t *testing.T) {
	f := newFakeProvider()
	f.createStatus = http.StatusUnprocessableEntity
	c := newTestClient(t, f)

	_, err := c.CreateOrder(context.Background(), decimal.RequireFromString("10.00"))

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindProviderRejected, pe.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, pe.Status)
	assert.True(t, strings.Contains(string(pe.Body), "CURRENCY_NOT_SUPPORTED"),
		"provider diagnostic payload preserved")
}

func TestCreateOrderProviderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // unreachable from here on
	c := NewClient(Config{
		BaseURL:      srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Currency:     "PHP",
		Timeout:      500 * time.Millisecond,
	})

	_, err := c.CreateOrder(context.Background(), decimal.RequireFromString("10.00"))

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindProviderUnavailable, pe.Kind)
}

func TestAccessTokenAuthFailed(t *testing.T) {
	f := newFakeProvider()
	c := newTestClient(t, f)
	c.clientSecret = "wrong-secret"

	_, err := c.AccessToken(context.Background())

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindAuthFailed, pe.Kind)
	assert.Equal(t, http.StatusUnauthorized, pe.Status)
}

func TestCaptureOrderRequiresID(t *testing.T) {
	f := newFakeProvider()
	c := newTestClient(t, f)

	_, err := c.CaptureOrder(context.Background(), "")

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidInput, pe.Kind)
	assert.Equal(t, int32(0), f.tokenCalls.Load())
}

func TestCaptureOrderSuccess(t *testing.T) {
	f := newFakeProvider()
	c := newTestClient(t, f)

	res, err := c.CaptureOrder(context.Background(), "PROV-ORDER-1")

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Status)
	assert.NotEmpty(t, res.Raw)
	assert.Equal(t, int32(1), f.tokenCalls.Load())
	assert.Equal(t, int32(1), f.captureCalls.Load())
}

func TestCaptureOrderProviderRejected(t *testing.T) {
	f := newFakeProvider()
	f.captureStatus = http.StatusConflict
	c := newTestClient(t, f)

	_, err := c.CaptureOrder(context.Background(), "PROV-ORDER-1")

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindProviderRejected, pe.Kind)
	assert.Equal(t, http.StatusConflict, pe.Status)
	assert.True(t, strings.Contains(string(pe.Body), "ORDER_ALREADY_CAPTURED"))
}
