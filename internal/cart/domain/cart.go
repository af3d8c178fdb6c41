package domain

import (
	"errors"
	"time"

	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Item is one cart row. At most one Item exists per (owner, garment, size);
// adding the same line again increments the quantity.
type Item struct {
	ID        string    `json:"id"`
	Owner     Owner     `json:"-"`
	GarmentID string    `json:"garmentId"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Line is a cart item joined with its current catalog garment. The line total
// uses the live price: carts deliberately track the catalog, unlike orders.
type Line struct {
	Item
	Garment        catalogdom.Garment `json:"garment"`
	LineTotalCents int64              `json:"lineTotal"`
}

// View is the aggregated cart returned to callers.
type View struct {
	Items      []Line `json:"items"`
	TotalCents int64  `json:"total"`
	Count      int    `json:"count"`
}

// PurchasedLine identifies a (garment, size) pair from a confirmed order,
// used to clear exactly the purchased cart rows.
type PurchasedLine struct {
	GarmentID string
	Size      string
}
