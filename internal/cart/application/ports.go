package application

import (
	"context"

	"github.com/vastralabs/vastra/internal/cart/domain"
	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
)

type CartRepository interface {
	ListForOwner(ctx context.Context, owner domain.Owner) ([]domain.Item, error)
	// Upsert merges the quantity into an existing (owner, garment, size) row
	// or creates one, returning the resulting row.
	Upsert(ctx context.Context, item domain.Item) (domain.Item, error)
	Delete(ctx context.Context, owner domain.Owner, itemID string) error
	// DeletePurchased removes only the user's rows matching the given
	// (garment, size) pairs.
	DeletePurchased(ctx context.Context, userID string, lines []domain.PurchasedLine) error
}

type GarmentCatalog interface {
	Get(ctx context.Context, id string) (catalogdom.Garment, error)
	GetBatch(ctx context.Context, ids []string) (map[string]catalogdom.Garment, error)
}
