// Package payment talks to the external payment processor (PayPal-style
// REST API). The adapter is a pass-through relay: it never persists payment
// state, and the caller interprets provider-specific capture states.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Currency     string
	Timeout      time.Duration
}

type Client struct {
	http         *resty.Client
	clientID     string
	clientSecret string
	currency     string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:         resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(timeout),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		currency:     cfg.Currency,
	}
}

// ProviderOrder is the result of creating a payment order with the provider.
type ProviderOrder struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

// CaptureResult is the provider's capture payload, passed through verbatim.
type CaptureResult struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

// AccessToken exchanges the configured client credentials for a short-lived
// bearer token. One round trip; no caching across calls, each payment
// operation re-acquires its token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tok).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", &Error{Kind: KindProviderUnavailable, Detail: "token endpoint unreachable", Err: err}
	}
	if !resp.IsSuccess() {
		return "", &Error{
			Kind:   KindAuthFailed,
			Detail: "provider rejected client credentials",
			Status: resp.StatusCode(),
			Body:   resp.Body(),
		}
	}
	if tok.AccessToken == "" {
		return "", &Error{Kind: KindAuthFailed, Detail: "provider returned no access token"}
	}
	return tok.AccessToken, nil
}

// CreateOrder creates a payment order with the provider for the given
// amount. The amount is validated before any network call.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal) (*ProviderOrder, error) {
	if !amount.IsPositive() {
		return nil, &Error{Kind: KindInvalidInput, Detail: "amount must be greater than zero"}
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": map[string]string{
				"currency_code": c.currency,
				"value":         amount.StringFixed(2),
			},
		}},
	}

	var out ProviderOrder
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/v2/checkout/orders")
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Detail: "create order request failed", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &Error{
			Kind:   KindProviderRejected,
			Detail: "provider rejected order creation",
			Status: resp.StatusCode(),
			Body:   resp.Body(),
		}
	}
	out.Raw = append([]byte(nil), resp.Body()...)
	return &out, nil
}

// CaptureOrder finalizes a previously created provider order. The provider
// payload is returned verbatim for the caller to interpret (already
// captured, voided, and similar states included).
func (c *Client) CaptureOrder(ctx context.Context, providerOrderID string) (*CaptureResult, error) {
	if providerOrderID == "" {
		return nil, &Error{Kind: KindInvalidInput, Detail: "provider order id is required"}
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var out CaptureResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetResult(&out).
		Post(fmt.Sprintf("/v2/checkout/orders/%s/capture", providerOrderID))
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Detail: "capture request failed", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &Error{
			Kind:   KindProviderRejected,
			Detail: "provider rejected capture",
			Status: resp.StatusCode(),
			Body:   resp.Body(),
		}
	}
	out.Raw = append([]byte(nil), resp.Body()...)
	return &out, nil
}
