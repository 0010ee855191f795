// File: internal/infra/acquirer/client.go
package acquirer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain/ports/adapter"
	"payment-lifecycle/internal/infra/metrics"
)

// Compile-time check
var _ adapter.AcquirerGateway = (*Client)(nil)

// Client talks to the acquirer's REST API over direct HTTP calls. Every
// outcome, including transport failures, is folded into the result's Failure
// field; the methods never return a Go error.
type Client struct {
	shopID    string
	secretKey string
	baseURL   string
	client    *http.Client
	log       *zerolog.Logger
}

func NewClient(baseURL, shopID, secretKey string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		shopID:    shopID,
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
		log:       logger,
	}
}

func (c *Client) Name() string { return "acquirer" }

// paymentResponse is the acquirer's payment object, shared by create, cancel
// and fetch responses.
type paymentResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

// errorResponse is the acquirer's error envelope on non-2xx responses.
type errorResponse struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (c *Client) Create(ctx context.Context, req adapter.CreateRequest) adapter.CreateResult {
	body := map[string]interface{}{
		"amount": map[string]interface{}{
			"value":    req.Amount,
			"currency": req.Currency,
		},
		"payment_method_data": map[string]string{"type": req.Method},
		"description":         req.Description,
		"metadata":            map[string]string{"order_id": req.OrderID},
	}
	if req.ReturnURL != "" {
		body["confirmation"] = map[string]string{
			"type":       "redirect",
			"return_url": req.ReturnURL,
		}
	}

	p, failure := c.do(ctx, http.MethodPost, "/payments", req.IdempotenceKey, body)
	if failure != nil {
		metrics.ObserveGateway("create", "failure")
		return adapter.CreateResult{Failure: failure}
	}
	metrics.ObserveGateway("create", "success")
	return adapter.CreateResult{
		AcquirerPaymentID: p.ID,
		ConfirmationURL:   p.Confirmation.ConfirmationURL,
		Status:            p.Status,
	}
}

func (c *Client) Cancel(ctx context.Context, idempotenceKey, acquirerPaymentID string) adapter.CancelResult {
	p, failure := c.do(ctx, http.MethodPost, "/payments/"+acquirerPaymentID+"/cancel", idempotenceKey, struct{}{})
	if failure != nil {
		metrics.ObserveGateway("cancel", "failure")
		return adapter.CancelResult{Failure: failure}
	}
	metrics.ObserveGateway("cancel", "success")
	return adapter.CancelResult{Status: p.Status}
}

func (c *Client) Fetch(ctx context.Context, acquirerPaymentID string) adapter.FetchResult {
	p, failure := c.do(ctx, http.MethodGet, "/payments/"+acquirerPaymentID, "", nil)
	if failure != nil {
		metrics.ObserveGateway("fetch", "failure")
		return adapter.FetchResult{Failure: failure}
	}
	metrics.ObserveGateway("fetch", "success")
	return adapter.FetchResult{AcquirerPaymentID: p.ID, Status: p.Status}
}

// do executes one API call and normalizes every failure mode into a Failure.
func (c *Client) do(ctx context.Context, method, path, idempotenceKey string, body interface{}) (*paymentResponse, *adapter.Failure) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, &adapter.Failure{Code: "internal_error", Message: fmt.Sprintf("marshal request: %v", err)}
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &adapter.Failure{Code: "internal_error", Message: fmt.Sprintf("build request: %v", err)}
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotenceKey != "" {
		req.Header.Set("Idempotence-Key", idempotenceKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeout, refused connection, DNS failure: the orchestration layer
		// sees these as a gateway failure, not an exception.
		c.log.Warn().Err(err).Str("path", path).Msg("acquirer request failed")
		return nil, &adapter.Failure{Code: "network_error", Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &adapter.Failure{Code: "network_error", Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		if err := json.Unmarshal(raw, &e); err != nil || e.Code == "" {
			return nil, &adapter.Failure{
				Code:    "http_error",
				Message: fmt.Sprintf("acquirer returned status %d", resp.StatusCode),
			}
		}
		return nil, &adapter.Failure{Code: e.Code, Message: e.Description}
	}

	var p paymentResponse
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &adapter.Failure{Code: "malformed_response", Message: fmt.Sprintf("unmarshal response: %v", err)}
	}
	return &p, nil
}
