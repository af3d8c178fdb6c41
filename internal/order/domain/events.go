package domain

// Created is published through the outbox when an order is persisted.
type Created struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`
	TotalCents  int64  `json:"total"`
	Items       []Item `json:"items"`
}

// Confirmed is published when settlement wins the PENDING to CONFIRMED
// transition. Redelivered callbacks never produce a second event.
type Confirmed struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`
	PaymentID   string `json:"paymentId"`
	TotalCents  int64  `json:"total"`
}
