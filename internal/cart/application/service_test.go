package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastralabs/vastra/internal/cart/domain"
	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
)

type fakeCartRepo struct {
	items          []domain.Item
	purchasedCalls int
}

func (f *fakeCartRepo) ListForOwner(_ context.Context, owner domain.Owner) ([]domain.Item, error) {
	var out []domain.Item
	for _, it := range f.items {
		if it.Owner == owner {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeCartRepo) Upsert(_ context.Context, item domain.Item) (domain.Item, error) {
	for i, it := range f.items {
		if it.Owner == item.Owner && it.GarmentID == item.GarmentID && it.Size == item.Size {
			f.items[i].Quantity += item.Quantity
			return f.items[i], nil
		}
	}
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeCartRepo) Delete(_ context.Context, owner domain.Owner, itemID string) error {
	for i, it := range f.items {
		if it.Owner == owner && it.ID == itemID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (f *fakeCartRepo) DeletePurchased(_ context.Context, userID string, lines []domain.PurchasedLine) error {
	f.purchasedCalls++
	matches := func(it domain.Item) bool {
		if !it.Owner.IsUser() || it.Owner.ID() != userID {
			return false
		}
		for _, l := range lines {
			if it.GarmentID == l.GarmentID && it.Size == l.Size {
				return true
			}
		}
		return false
	}
	kept := f.items[:0]
	for _, it := range f.items {
		if !matches(it) {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return nil
}

type fakeGarmentCatalog struct {
	garments map[string]catalogdom.Garment
}

func (f *fakeGarmentCatalog) Get(_ context.Context, id string) (catalogdom.Garment, error) {
	g, ok := f.garments[id]
	if !ok {
		return catalogdom.Garment{}, catalogdom.ErrNotFound
	}
	return g, nil
}

func (f *fakeGarmentCatalog) GetBatch(_ context.Context, ids []string) (map[string]catalogdom.Garment, error) {
	out := map[string]catalogdom.Garment{}
	for _, id := range ids {
		if g, ok := f.garments[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func newTestService(repo *fakeCartRepo) *Service {
	catalog := &fakeGarmentCatalog{garments: map[string]catalogdom.Garment{
		"g-saree": {ID: "g-saree", Name: "Ajrakh Print Cotton Saree", PriceCents: 3200},
		"g-kurta": {ID: "g-kurta", Name: "Chikankari Anarkali Kurta", PriceCents: 4500},
	}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, repo, catalog)
}

func TestAddItemRejectsInvalidQuantity(t *testing.T) {
	svc := newTestService(&fakeCartRepo{})
	_, err := svc.AddItem(context.Background(), domain.ForUser("user-1"), "g-saree", "M", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAddItemRejectsUnknownGarment(t *testing.T) {
	svc := newTestService(&fakeCartRepo{})
	_, err := svc.AddItem(context.Background(), domain.ForUser("user-1"), "g-missing", "M", 1)
	assert.ErrorIs(t, err, catalogdom.ErrNotFound)
}

func TestAddItemMergesSameLine(t *testing.T) {
	repo := &fakeCartRepo{}
	svc := newTestService(repo)
	owner := domain.ForUser("user-1")

	_, err := svc.AddItem(context.Background(), owner, "g-saree", "M", 1)
	require.NoError(t, err)
	line, err := svc.AddItem(context.Background(), owner, "g-saree", "M", 2)
	require.NoError(t, err)

	assert.Equal(t, 3, line.Item.Quantity)
	assert.Equal(t, int64(3*3200), line.LineTotalCents)
	assert.Len(t, repo.items, 1)
}

func TestAddItemKeepsSizesSeparate(t *testing.T) {
	repo := &fakeCartRepo{}
	svc := newTestService(repo)
	owner := domain.ForGuest("sess-1")

	_, err := svc.AddItem(context.Background(), owner, "g-kurta", "M", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), owner, "g-kurta", "L", 1)
	require.NoError(t, err)

	assert.Len(t, repo.items, 2)
}

func TestGetPricesFromLiveCatalog(t *testing.T) {
	repo := &fakeCartRepo{}
	svc := newTestService(repo)
	owner := domain.ForUser("user-1")

	_, err := svc.AddItem(context.Background(), owner, "g-saree", "M", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), owner, "g-kurta", "S", 1)
	require.NoError(t, err)

	view, err := svc.Get(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, 2, view.Count)
	assert.Equal(t, int64(2*3200+4500), view.TotalCents)
}

func TestGetSkipsGarmentsRemovedFromCatalog(t *testing.T) {
	repo := &fakeCartRepo{items: []domain.Item{
		{ID: "it-1", Owner: domain.ForUser("user-1"), GarmentID: "g-saree", Size: "M", Quantity: 1},
		{ID: "it-2", Owner: domain.ForUser("user-1"), GarmentID: "g-retired", Size: "M", Quantity: 1},
	}}
	svc := newTestService(repo)

	view, err := svc.Get(context.Background(), domain.ForUser("user-1"))
	require.NoError(t, err)

	assert.Equal(t, 1, view.Count)
	assert.Equal(t, int64(3200), view.TotalCents)
}

func TestGetEmptyCart(t *testing.T) {
	svc := newTestService(&fakeCartRepo{})
	view, err := svc.Get(context.Background(), domain.ForGuest("sess-9"))
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.TotalCents)
}

func TestRemoveItemUnknownID(t *testing.T) {
	svc := newTestService(&fakeCartRepo{})
	err := svc.RemoveItem(context.Background(), domain.ForUser("user-1"), "it-404")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestClearPurchasedRemovesOnlyOrderedLines(t *testing.T) {
	repo := &fakeCartRepo{}
	svc := newTestService(repo)
	owner := domain.ForUser("user-1")

	_, err := svc.AddItem(context.Background(), owner, "g-saree", "M", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), owner, "g-kurta", "S", 1)
	require.NoError(t, err)

	err = svc.ClearPurchased(context.Background(), "user-1",
		[]domain.PurchasedLine{{GarmentID: "g-saree", Size: "M"}})
	require.NoError(t, err)

	require.Len(t, repo.items, 1)
	assert.Equal(t, "g-kurta", repo.items[0].GarmentID)
}

func TestClearPurchasedNoLinesSkipsRepository(t *testing.T) {
	repo := &fakeCartRepo{}
	svc := newTestService(repo)

	err := svc.ClearPurchased(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Zero(t, repo.purchasedCalls)
}
