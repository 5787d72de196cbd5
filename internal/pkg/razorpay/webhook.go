package razorpay

import (
	"encoding/json"
	"fmt"
)

// Webhook event names the booking core reacts to
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
)

// PaymentEntity represents the payment object inside a webhook payload
type PaymentEntity struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	AmountPaisa int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// RefundEntity represents the refund object inside a webhook payload
type RefundEntity struct {
	ID          string `json:"id"`
	PaymentID   string `json:"payment_id"`
	AmountPaisa int64  `json:"amount"`
	Status      string `json:"status"`
}

// WebhookEvent represents a Razorpay webhook notification
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity RefundEntity `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// ParseWebhook decodes a webhook body. Signature verification is the
// caller's responsibility and must happen on the raw body before parsing.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook body: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("event name is required")
	}
	return &event, nil
}

// IsPaymentEvent reports whether the event carries a payment entity
func (e *WebhookEvent) IsPaymentEvent() bool {
	return e.Event == EventPaymentCaptured || e.Event == EventPaymentFailed
}
