package application

import (
	"context"

	"github.com/vastralabs/vastra/internal/catalog/domain"
)

type GarmentRepository interface {
	List(ctx context.Context, f domain.Filter) ([]domain.Garment, int, error)
	Get(ctx context.Context, id string) (domain.Garment, error)
	GetBatch(ctx context.Context, ids []string) (map[string]domain.Garment, error)
}
