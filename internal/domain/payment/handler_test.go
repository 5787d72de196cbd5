package payment_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/sportbook/sportbook-api/internal/domain/payment"
	"github.com/sportbook/sportbook-api/internal/middleware"
	"github.com/sportbook/sportbook-api/internal/pkg/razorpay"
)

const (
	testKeySecret     = "rzp_key_secret_test"
	testWebhookSecret = "whsec_test"
)

type capturedCall struct {
	kind              string
	orderID           string
	providerPaymentID string
}

type stubBookingUpdater struct {
	calls []capturedCall
	err   error
}

func (s *stubBookingUpdater) PaymentCaptured(ctx context.Context, orderID, providerPaymentID string) error {
	s.calls = append(s.calls, capturedCall{"captured", orderID, providerPaymentID})
	return s.err
}

func (s *stubBookingUpdater) PaymentFailed(ctx context.Context, orderID, providerPaymentID string) error {
	s.calls = append(s.calls, capturedCall{"failed", orderID, providerPaymentID})
	return s.err
}

func (s *stubBookingUpdater) RefundProcessed(ctx context.Context, providerPaymentID string) error {
	s.calls = append(s.calls, capturedCall{"refunded", "", providerPaymentID})
	return s.err
}

func postWebhook(t *testing.T, h *payment.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookPaymentCaptured(t *testing.T) {
	updater := &stubBookingUpdater{}
	h := payment.NewHandler(nil, updater, testKeySecret, testWebhookSecret)

	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_123",
					"order_id": "order_456",
					"amount": 100000,
					"currency": "INR",
					"status": "captured"
				}
			}
		}
	}`)

	rec := postWebhook(t, h, body, razorpay.SignHMAC(string(body), testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(updater.calls) != 1 {
		t.Fatalf("expected 1 booking update, got %d", len(updater.calls))
	}
	call := updater.calls[0]
	if call.kind != "captured" || call.orderID != "order_456" || call.providerPaymentID != "pay_123" {
		t.Fatalf("unexpected dispatch: %+v", call)
	}
}

func TestWebhookPaymentFailed(t *testing.T) {
	updater := &stubBookingUpdater{}
	h := payment.NewHandler(nil, updater, testKeySecret, testWebhookSecret)

	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","status":"failed"}}}}`)

	rec := postWebhook(t, h, body, razorpay.SignHMAC(string(body), testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(updater.calls) != 1 || updater.calls[0].kind != "failed" {
		t.Fatalf("expected one failed dispatch, got %+v", updater.calls)
	}
}

func TestWebhookRefundProcessed(t *testing.T) {
	updater := &stubBookingUpdater{}
	h := payment.NewHandler(nil, updater, testKeySecret, testWebhookSecret)

	body := []byte(`{"event":"refund.processed","payload":{"refund":{"entity":{"id":"rfnd_1","payment_id":"pay_123","amount":100000,"status":"processed"}}}}`)

	rec := postWebhook(t, h, body, razorpay.SignHMAC(string(body), testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(updater.calls) != 1 || updater.calls[0].kind != "refunded" || updater.calls[0].providerPaymentID != "pay_123" {
		t.Fatalf("expected one refund dispatch, got %+v", updater.calls)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	updater := &stubBookingUpdater{}
	h := payment.NewHandler(nil, updater, testKeySecret, testWebhookSecret)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`)

	rec := postWebhook(t, h, body, "deadbeef")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(updater.calls) != 0 {
		t.Fatalf("unverified webhook must not reach booking logic")
	}

	rec = postWebhook(t, h, body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", rec.Code)
	}
}

func TestWebhookIgnoresUnknownEvent(t *testing.T) {
	updater := &stubBookingUpdater{}
	h := payment.NewHandler(nil, updater, testKeySecret, testWebhookSecret)

	body := []byte(`{"event":"invoice.paid","payload":{}}`)

	rec := postWebhook(t, h, body, razorpay.SignHMAC(string(body), testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown events should be acknowledged, got %d", rec.Code)
	}
	if len(updater.calls) != 0 {
		t.Fatalf("unknown events must not dispatch")
	}
}

type stubPaymentRepo struct {
	payment.Repository

	byOrder map[string]*payment.Payment
}

func (s *stubPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*payment.Payment, error) {
	if p, ok := s.byOrder[orderID]; ok {
		return p, nil
	}
	return nil, payment.ErrPaymentNotFound
}

func postVerify(t *testing.T, h *payment.Handler, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", bytes.NewReader([]byte(body)))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	rec := httptest.NewRecorder()
	h.Verify(rec, req.WithContext(ctx))
	return rec
}

func TestVerifyCheckoutConfirmsBooking(t *testing.T) {
	userID := uuid.New()
	updater := &stubBookingUpdater{}
	repo := &stubPaymentRepo{byOrder: map[string]*payment.Payment{
		"order_456": {ID: uuid.New(), UserID: userID},
	}}
	h := payment.NewHandler(repo, updater, testKeySecret, testWebhookSecret)

	sig := razorpay.SignHMAC(razorpay.BuildPaymentSignatureBase("order_456", "pay_123"), testKeySecret)
	body := fmt.Sprintf(`{"orderId":"order_456","paymentId":"pay_123","signature":"%s"}`, sig)

	rec := postVerify(t, h, userID, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(updater.calls) != 1 || updater.calls[0].kind != "captured" ||
		updater.calls[0].orderID != "order_456" || updater.calls[0].providerPaymentID != "pay_123" {
		t.Fatalf("unexpected dispatch: %+v", updater.calls)
	}
}

func TestVerifyCheckoutRejectsBadSignature(t *testing.T) {
	userID := uuid.New()
	updater := &stubBookingUpdater{}
	repo := &stubPaymentRepo{byOrder: map[string]*payment.Payment{
		"order_456": {ID: uuid.New(), UserID: userID},
	}}
	h := payment.NewHandler(repo, updater, testKeySecret, testWebhookSecret)

	body := `{"orderId":"order_456","paymentId":"pay_123","signature":"deadbeef"}`

	rec := postVerify(t, h, userID, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a forged signature, got %d", rec.Code)
	}
	if len(updater.calls) != 0 {
		t.Fatalf("forged signature must not confirm anything")
	}
}

func TestVerifyCheckoutOwnershipEnforced(t *testing.T) {
	owner := uuid.New()
	updater := &stubBookingUpdater{}
	repo := &stubPaymentRepo{byOrder: map[string]*payment.Payment{
		"order_456": {ID: uuid.New(), UserID: owner},
	}}
	h := payment.NewHandler(repo, updater, testKeySecret, testWebhookSecret)

	sig := razorpay.SignHMAC(razorpay.BuildPaymentSignatureBase("order_456", "pay_123"), testKeySecret)
	body := fmt.Sprintf(`{"orderId":"order_456","paymentId":"pay_123","signature":"%s"}`, sig)

	rec := postVerify(t, h, uuid.New(), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a stranger's verify, got %d", rec.Code)
	}
	if len(updater.calls) != 0 {
		t.Fatalf("stranger must not confirm the booking")
	}
}

func TestVerifyCheckoutUnknownOrder(t *testing.T) {
	updater := &stubBookingUpdater{}
	h := payment.NewHandler(&stubPaymentRepo{}, updater, testKeySecret, testWebhookSecret)

	body := `{"orderId":"order_x","paymentId":"pay_x","signature":"abc"}`

	rec := postVerify(t, h, uuid.New(), body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", rec.Code)
	}
}

func TestWebhookAcknowledgesUnknownPayment(t *testing.T) {
	updater := &stubBookingUpdater{err: payment.ErrPaymentNotFound}
	h := payment.NewHandler(nil, updater, testKeySecret, testWebhookSecret)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_x","order_id":"order_x"}}}}`)

	rec := postWebhook(t, h, body, razorpay.SignHMAC(string(body), testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown payment should be acknowledged to stop redelivery, got %d", rec.Code)
	}
}
