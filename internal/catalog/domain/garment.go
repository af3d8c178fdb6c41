package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("garment not found")

// Garment is a catalog item. The core treats it as read-only: catalog
// management owns writes.
type Garment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	ImageURL     string    `json:"imageUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	PriceCents   int64     `json:"price"`
	Sizes        []string  `json:"sizes"`
	InStock      bool      `json:"inStock"`
	StockCount   int       `json:"stockCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Filter narrows a catalog listing.
type Filter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}
