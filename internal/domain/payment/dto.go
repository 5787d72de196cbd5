package payment

// VerifyRequest carries the checkout result Razorpay hands to the frontend.
// The signature is HMAC-SHA256 over "order_id|payment_id" with the key
// secret; verifying it server-side is what makes the capture trustworthy.
type VerifyRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}
