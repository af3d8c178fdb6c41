package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// ShippingCents is the flat shipping fee added to every order.
const ShippingCents int64 = 100

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order has no line items")
	ErrUnknownGarment    = errors.New("unknown garment")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidTransition = errors.New("invalid order state transition")
)

// Address is a snapshot copied onto the order at creation time. Later edits
// to the customer's address book never touch existing orders.
type Address struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Item is an order line with the unit price frozen at order creation.
type Item struct {
	GarmentID      string `json:"garmentId"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"price"`
}

type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	UserID          string        `json:"userId"`
	ShippingAddress Address       `json:"shippingAddress"`
	SubtotalCents   int64         `json:"subtotal"`
	ShippingCents   int64         `json:"shippingCost"`
	TotalCents      int64         `json:"total"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentID       string        `json:"paymentId,omitempty"`
	Items           []Item        `json:"items"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// New assembles a PENDING order from already-priced items. Items must carry
// unit prices resolved from the catalog at this instant.
func New(id, userID string, items []Item, addr Address, now time.Time) Order {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPriceCents * int64(it.Quantity)
	}
	return Order{
		ID:              id,
		OrderNumber:     NewOrderNumber(now),
		UserID:          userID,
		ShippingAddress: addr,
		SubtotalCents:   subtotal,
		ShippingCents:   ShippingCents,
		TotalCents:      subtotal + ShippingCents,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Items:           items,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
}

// NewOrderNumber derives a time-ordered order number. The random suffix keeps
// two checkouts in the same millisecond from colliding on the unique column.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), hex.EncodeToString(suffix))
}
