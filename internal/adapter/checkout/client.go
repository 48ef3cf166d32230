// Package checkout talks to the hosted payment provider. The provider is
// opaque to the rest of the system: it receives an amount, currency and
// reference, and later reports an outcome through the callback endpoint.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/openbracket/regatta/internal/domain"
)

// Compile-time check: Client implements domain.PaymentGateway.
var _ domain.PaymentGateway = (*Client)(nil)

// Client opens checkout sessions against the provider's REST API.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// New creates a gateway client. The call timeout is the caller's
// responsibility (the service bounds each OpenCheckout with a context).
func New(baseURL, key string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		httpClient: &http.Client{},
	}
}

type checkoutPrefill struct {
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type checkoutRequest struct {
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
	Receipt     string          `json:"receipt"`
	Description string          `json:"description,omitempty"`
	Prefill     checkoutPrefill `json:"prefill"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// OpenCheckout opens a session with the provider and returns the hosted
// checkout URL the user completes payment on.
func (c *Client) OpenCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	payload, err := json.Marshal(checkoutRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Reference:   req.Reference,
		Receipt:     req.Receipt,
		Description: req.Description,
		Prefill: checkoutPrefill{
			Email:   req.Email,
			Contact: req.Contact,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var out checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding checkout response: %w", err)
	}
	if out.CheckoutURL == "" {
		return "", fmt.Errorf("payment gateway returned no checkout url")
	}

	return out.CheckoutURL, nil
}
