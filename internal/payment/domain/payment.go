package domain

import "errors"

var (
	// ErrInvalidSignature marks a callback whose signature does not verify.
	// Handling it must never mutate state: repeated forged deliveries are
	// expected and harmless.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrUnknownOrder marks a verified callback referencing no known payment
	// intent.
	ErrUnknownOrder = errors.New("no order for payment reference")

	// ErrGatewayUnavailable wraps intent-creation failures. The order stays
	// PENDING without a payment id and initiation may be retried.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// Callback is the signed notification delivered by the gateway after the
// shopper completes payment.
type Callback struct {
	OrderRef   string `json:"razorpay_order_id"`
	PaymentRef string `json:"razorpay_payment_id"`
	Signature  string `json:"razorpay_signature"`
}

// ClientParams carries everything the shopper's client needs to drive the
// gateway checkout for an initiated order.
type ClientParams struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	IntentID    string `json:"razorpayOrderId"`
	KeyID       string `json:"razorpayKeyId"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// Settlement is the result of a successfully processed callback.
type Settlement struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}
