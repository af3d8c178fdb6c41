package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vastralabs/vastra/internal/cart/domain"
)

type Service struct {
	log     *slog.Logger
	repo    CartRepository
	catalog GarmentCatalog
}

func NewService(log *slog.Logger, repo CartRepository, catalog GarmentCatalog) *Service {
	return &Service{log: log, repo: repo, catalog: catalog}
}

// Get returns the owner's cart joined with live catalog prices. The total
// tracks the current catalog, unlike order totals which are frozen.
func (s *Service) Get(ctx context.Context, owner domain.Owner) (domain.View, error) {
	items, err := s.repo.ListForOwner(ctx, owner)
	if err != nil {
		return domain.View{}, fmt.Errorf("list cart: %w", err)
	}
	if len(items) == 0 {
		return domain.View{Items: []domain.Line{}}, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.GarmentID)
	}
	garments, err := s.catalog.GetBatch(ctx, ids)
	if err != nil {
		return domain.View{}, fmt.Errorf("resolve garments: %w", err)
	}

	view := domain.View{Items: make([]domain.Line, 0, len(items))}
	for _, it := range items {
		g, ok := garments[it.GarmentID]
		if !ok {
			// garment removed from catalog after it was carted; skip the row
			s.log.Warn("cart references missing garment", "item_id", it.ID, "garment_id", it.GarmentID)
			continue
		}
		line := domain.Line{
			Item:           it,
			Garment:        g,
			LineTotalCents: g.PriceCents * int64(it.Quantity),
		}
		view.Items = append(view.Items, line)
		view.TotalCents += line.LineTotalCents
	}
	view.Count = len(view.Items)
	return view, nil
}

// AddItem merges into an existing (owner, garment, size) row or creates one.
func (s *Service) AddItem(ctx context.Context, owner domain.Owner, garmentID, size string, quantity int) (domain.Line, error) {
	if quantity < 1 {
		return domain.Line{}, domain.ErrInvalidQuantity
	}
	garment, err := s.catalog.Get(ctx, garmentID)
	if err != nil {
		return domain.Line{}, err
	}

	now := time.Now().UTC()
	item, err := s.repo.Upsert(ctx, domain.Item{
		ID:        uuid.NewString(),
		Owner:     owner,
		GarmentID: garmentID,
		Size:      size,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Line{}, fmt.Errorf("upsert cart item: %w", err)
	}
	return domain.Line{
		Item:           item,
		Garment:        garment,
		LineTotalCents: garment.PriceCents * int64(item.Quantity),
	}, nil
}

func (s *Service) RemoveItem(ctx context.Context, owner domain.Owner, itemID string) error {
	return s.repo.Delete(ctx, owner, itemID)
}

// ClearPurchased removes the user's cart rows matching the confirmed order's
// lines. Items added after checkout survive.
func (s *Service) ClearPurchased(ctx context.Context, userID string, lines []domain.PurchasedLine) error {
	if len(lines) == 0 {
		return nil
	}
	return s.repo.DeletePurchased(ctx, userID, lines)
}
