package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignHMAC computes the hex-encoded HMAC-SHA256 of base with the given secret
func SignHMAC(base string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildPaymentSignatureBase builds the base string Razorpay signs on checkout
// completion: "order_id|payment_id"
func BuildPaymentSignatureBase(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}

// VerifyPaymentSignature validates the signature returned by Razorpay checkout.
// Signature format: HMAC-SHA256(order_id|payment_id, key_secret)
func VerifyPaymentSignature(orderID, paymentID, signature, keySecret string) bool {
	if keySecret == "" || signature == "" {
		return false
	}
	expected := SignHMAC(BuildPaymentSignatureBase(orderID, paymentID), keySecret)
	return VerifySignature(expected, signature)
}

// VerifyWebhookSignature validates the X-Razorpay-Signature header against the
// raw webhook body. Signature format: HMAC-SHA256(body, webhook_secret)
func VerifyWebhookSignature(body []byte, signature, webhookSecret string) bool {
	if webhookSecret == "" || signature == "" {
		return false
	}
	expected := SignHMAC(string(body), webhookSecret)
	return VerifySignature(expected, signature)
}

// VerifySignature compares two hex signatures in constant time
func VerifySignature(expectedHex, receivedHex string) bool {
	expected := strings.ToLower(strings.TrimSpace(expectedHex))
	received := strings.ToLower(strings.TrimSpace(receivedHex))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
