package application

import (
	"context"
	"log/slog"

	"github.com/vastralabs/vastra/internal/catalog/domain"
)

type Service struct {
	log  *slog.Logger
	repo GarmentRepository
}

func NewService(log *slog.Logger, repo GarmentRepository) *Service {
	return &Service{log: log, repo: repo}
}

// Listing is a page of in-stock garments plus the pagination envelope.
type Listing struct {
	Garments   []domain.Garment
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func (s *Service) List(ctx context.Context, f domain.Filter) (Listing, error) {
	f = f.Normalize()
	garments, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Listing{}, err
	}
	pages := total / f.Limit
	if total%f.Limit != 0 {
		pages++
	}
	return Listing{
		Garments:   garments,
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: pages,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Garment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetBatch(ctx context.Context, ids []string) (map[string]domain.Garment, error) {
	return s.repo.GetBatch(ctx, ids)
}
