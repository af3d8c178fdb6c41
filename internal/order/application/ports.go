package application

import (
	"context"

	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
	"github.com/vastralabs/vastra/internal/order/domain"
)

type OrderRepository interface {
	// CreateWithOutbox persists the order, its items, and the OrderCreated
	// event in one transaction.
	CreateWithOutbox(ctx context.Context, o domain.Order, payload []byte, traceparent string) error
	Get(ctx context.Context, id string) (domain.Order, error)
	GetForUser(ctx context.Context, id, userID string) (domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error)
	AttachPaymentIntent(ctx context.Context, orderID, intentID string) error
	// ConfirmWithOutbox runs the guarded PENDING to CONFIRMED update and, on
	// the winning transition only, inserts the OrderConfirmed event in the
	// same transaction. It reports whether this call won and the status the
	// row holds afterwards.
	ConfirmWithOutbox(ctx context.Context, orderID string, payload []byte, traceparent string) (bool, domain.Status, error)
}

type GarmentCatalog interface {
	GetBatch(ctx context.Context, ids []string) (map[string]catalogdom.Garment, error)
}
