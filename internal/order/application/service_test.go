package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
	"github.com/vastralabs/vastra/internal/order/domain"
)

type fakeOrderRepo struct {
	orders map[string]domain.Order
	// confirmStatus, when set, is what ConfirmWithOutbox reports after losing
	// the guarded update, simulating a concurrent writer.
	confirmStatus domain.Status
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]domain.Order{}}
}

func (f *fakeOrderRepo) CreateWithOutbox(_ context.Context, o domain.Order, _ []byte, _ string) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) Get(_ context.Context, id string) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetForUser(ctx context.Context, id, userID string) (domain.Order, error) {
	o, err := f.Get(ctx, id)
	if err != nil || o.UserID != userID {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListForUser(_ context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindByPaymentID(_ context.Context, paymentID string) (domain.Order, error) {
	for _, o := range f.orders {
		if o.PaymentID == paymentID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrNotFound
}

func (f *fakeOrderRepo) AttachPaymentIntent(_ context.Context, orderID, intentID string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.PaymentID = intentID
	f.orders[orderID] = o
	return nil
}

func (f *fakeOrderRepo) ConfirmWithOutbox(_ context.Context, orderID string, _ []byte, _ string) (bool, domain.Status, error) {
	if f.confirmStatus != "" {
		return false, f.confirmStatus, nil
	}
	o, ok := f.orders[orderID]
	if !ok {
		return false, "", domain.ErrNotFound
	}
	if o.Status != domain.StatusPending {
		return false, o.Status, nil
	}
	o.Status = domain.StatusConfirmed
	o.PaymentStatus = domain.PaymentPaid
	f.orders[orderID] = o
	return true, domain.StatusConfirmed, nil
}

type fakeCatalog struct {
	garments map[string]catalogdom.Garment
}

func (f *fakeCatalog) GetBatch(_ context.Context, ids []string) (map[string]catalogdom.Garment, error) {
	out := map[string]catalogdom.Garment{}
	for _, id := range ids {
		if g, ok := f.garments[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *fakeOrderRepo) *Service {
	catalog := &fakeCatalog{garments: map[string]catalogdom.Garment{
		"g-saree":   {ID: "g-saree", Name: "Kanjivaram Silk Saree", PriceCents: 6000},
		"g-lehenga": {ID: "g-lehenga", Name: "Banarasi Bridal Lehenga", PriceCents: 12000},
	}}
	return NewService(discardLogger(), repo, catalog, nil)
}

func TestCreateRejectsEmptyOrder(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())
	_, err := svc.Create(context.Background(), "user-1", nil, domain.Address{})
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
}

func TestCreateRejectsZeroQuantity(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())
	_, err := svc.Create(context.Background(), "user-1",
		[]LineInput{{GarmentID: "g-saree", Size: "M", Quantity: 0}}, domain.Address{})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestCreateRejectsUnknownGarment(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "user-1",
		[]LineInput{{GarmentID: "g-missing", Size: "M", Quantity: 1}}, domain.Address{})
	require.ErrorIs(t, err, domain.ErrUnknownGarment)
	assert.Contains(t, err.Error(), "g-missing")
	assert.Empty(t, repo.orders)
}

func TestCreateFreezesCatalogPrices(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), "user-1",
		[]LineInput{{GarmentID: "g-saree", Size: "M", Quantity: 1}}, domain.Address{City: "Chennai"})
	require.NoError(t, err)

	assert.Equal(t, int64(6000), o.Items[0].UnitPriceCents)
	assert.Equal(t, int64(6000), o.SubtotalCents)
	assert.Equal(t, int64(6100), o.TotalCents)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.NotEmpty(t, o.OrderNumber)

	stored, ok := repo.orders[o.ID]
	require.True(t, ok)
	assert.Equal(t, o.TotalCents, stored.TotalCents)
}

func TestCreateFoldsDuplicateLines(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), "user-1",
		[]LineInput{
			{GarmentID: "g-saree", Size: "M", Quantity: 1},
			{GarmentID: "g-saree", Size: "L", Quantity: 1},
			{GarmentID: "g-saree", Size: "M", Quantity: 2},
		}, domain.Address{})
	require.NoError(t, err)

	require.Len(t, o.Items, 2)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, "M", o.Items[0].Size)
	assert.Equal(t, 1, o.Items[1].Quantity)
	assert.Equal(t, int64(4*6000), o.SubtotalCents)
}

func TestConfirmTransitionsPendingOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), "user-1",
		[]LineInput{{GarmentID: "g-lehenga", Size: "L", Quantity: 1}}, domain.Address{})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
	assert.Equal(t, domain.PaymentPaid, confirmed.PaymentStatus)
	assert.Equal(t, domain.StatusConfirmed, repo.orders[o.ID].Status)
}

func TestConfirmIsIdempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), "user-1",
		[]LineInput{{GarmentID: "g-saree", Size: "S", Quantity: 1}}, domain.Address{})
	require.NoError(t, err)

	first, err := svc.Confirm(context.Background(), o.ID)
	require.NoError(t, err)
	second, err := svc.Confirm(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
}

func TestConfirmRejectsCancelledOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), "user-1",
		[]LineInput{{GarmentID: "g-saree", Size: "S", Quantity: 1}}, domain.Address{})
	require.NoError(t, err)

	cancelled := repo.orders[o.ID]
	cancelled.Status = domain.StatusCancelled
	repo.orders[o.ID] = cancelled

	_, err = svc.Confirm(context.Background(), o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestConfirmLosingRaceToConfirmationSucceeds(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), "user-1",
		[]LineInput{{GarmentID: "g-saree", Size: "S", Quantity: 1}}, domain.Address{})
	require.NoError(t, err)

	// another writer confirms between the read and the guarded update
	repo.confirmStatus = domain.StatusConfirmed

	confirmed, err := svc.Confirm(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
}

func TestConfirmUnknownOrder(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())
	_, err := svc.Confirm(context.Background(), "no-such-order")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
