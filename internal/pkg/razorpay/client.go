package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Config holds Razorpay configuration
type Config struct {
	KeyID         string // API key id (basic auth user)
	KeySecret     string // API key secret (basic auth password)
	WebhookSecret string // Secret for webhook signature verification
	BaseURL       string // Override for tests
	Timeout       time.Duration
}

// Client represents Razorpay payment gateway client
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates new Razorpay client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: timeout},
	}
}

// CreateOrderRequest represents order creation request
type CreateOrderRequest struct {
	AmountPaisa int64             // Amount in smallest currency unit
	Currency    string            // e.g. INR
	Receipt     string            // Internal reference (booking id)
	Notes       map[string]string // Optional metadata
}

// Order represents a Razorpay order
type Order struct {
	ID          string `json:"id"`
	AmountPaisa int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates an order at Razorpay. The returned order id is stored
// on the local payment row and later matched against webhook callbacks.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.AmountPaisa <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(c.config.KeyID) == "" || strings.TrimSpace(c.config.KeySecret) == "" {
		return nil, fmt.Errorf("razorpay config error: api key is empty")
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	body, err := json.Marshal(map[string]interface{}{
		"amount":   req.AmountPaisa,
		"currency": currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	})
	if err != nil {
		return nil, err
	}

	baseURL := c.config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.config.KeyID, c.config.KeySecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("razorpay: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Code != "" {
			return nil, fmt.Errorf("razorpay: %s - %s (status=%d)", apiErr.Error.Code, apiErr.Error.Description, resp.StatusCode)
		}
		return nil, fmt.Errorf("razorpay: unexpected status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("razorpay: decode order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay: order id missing in response")
	}

	return &order, nil
}
