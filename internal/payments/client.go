// Package payments integrates with a Snap-style hosted payment gateway.
//
// The flow: Checkout creates a local pending transaction with a fresh order
// ID and asks the gateway for a payment page. The gateway later reports the
// outcome through a signed HTTP notification (HandleNotification), or the
// status is pulled on demand (Sync). Status changes that settle a payment
// confirm the membership fee or event booking they pay for.
package payments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/mrlokans/librarium/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sandboxSnapURL    = "https://app.sandbox.midtrans.com/snap/v1"
	sandboxAPIURL     = "https://api.sandbox.midtrans.com/v2"
	productionSnapURL = "https://app.midtrans.com/snap/v1"
	productionAPIURL  = "https://api.midtrans.com/v2"

	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 500 * time.Millisecond
	retryBackoffFactor = 2
)

// Client talks to the payment gateway's Snap and core APIs.
type Client struct {
	httpClient *http.Client
	serverKey  string
	snapURL    string
	apiURL     string
}

// NewClient creates a gateway client for the sandbox or production environment.
func NewClient(cfg config.Payment) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		serverKey:  cfg.ServerKey,
		snapURL:    sandboxSnapURL,
		apiURL:     sandboxAPIURL,
	}
	if cfg.Production {
		c.snapURL = productionSnapURL
		c.apiURL = productionAPIURL
	}
	return c
}

// WithBaseURLs points the client at other Snap and core API roots.
func (c *Client) WithBaseURLs(snapURL, apiURL string) *Client {
	c.snapURL = snapURL
	c.apiURL = apiURL
	return c
}

// ServerKey is the secret used for API auth and notification signatures.
func (c *Client) ServerKey() string {
	return c.serverKey
}

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type Expiry struct {
	Unit     string `json:"unit"`
	Duration int    `json:"duration"`
}

// CreateTransactionRequest is the body of a Snap transaction request.
type CreateTransactionRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
	Expiry             *Expiry            `json:"expiry,omitempty"`
}

// CreateTransactionResponse carries the payment page for a new transaction.
type CreateTransactionResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// StatusResponse is both the status API response and the notification payload.
type StatusResponse struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	SignatureKey      string `json:"signature_key,omitempty"`
}

type errorResponse struct {
	StatusCode    string   `json:"status_code"`
	StatusMessage string   `json:"status_message"`
	ErrorMessages []string `json:"error_messages"`
}

// CreateTransaction requests a hosted payment page for an order.
// It is not retried; a repeated order ID would be rejected by the gateway.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResponse, error) {
	if c.serverKey == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp CreateTransactionResponse
	if err := c.do(ctx, http.MethodPost, c.snapURL+"/transactions", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus fetches the current status of an order, retrying on rate limits
// and server errors.
func (c *Client) GetStatus(ctx context.Context, orderID string) (*StatusResponse, error) {
	if c.serverKey == "" {
		return nil, ErrNotConfigured
	}
	endpoint := c.apiURL + "/" + url.PathEscape(orderID) + "/status"

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt)):
			}
		}

		var resp StatusResponse
		lastErr = c.do(ctx, http.MethodGet, endpoint, nil, &resp)
		if lastErr == nil {
			// the core API reports missing orders with a 404 inside a 200 body
			if code, _ := strconv.Atoi(resp.StatusCode); code >= 400 {
				return nil, &GatewayError{StatusCode: code, Messages: []string{resp.StatusMessage}}
			}
			return &resp, nil
		}
		gwErr, ok := lastErr.(*GatewayError)
		if !ok || !gwErr.Retryable() {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.serverKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil {
			gwErr.Messages = errResp.ErrorMessages
			if len(gwErr.Messages) == 0 && errResp.StatusMessage != "" {
				gwErr.Messages = []string{errResp.StatusMessage}
			}
		}
		return gwErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func retryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	return delay
}

// ParseNotification decodes a gateway notification body.
func ParseNotification(body []byte) (*StatusResponse, error) {
	var n StatusResponse
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if n.OrderID == "" {
		return nil, fmt.Errorf("notification has no order_id")
	}
	return &n, nil
}
