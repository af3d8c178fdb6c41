package application

import (
	"context"

	cartdom "github.com/vastralabs/vastra/internal/cart/domain"
	orderdom "github.com/vastralabs/vastra/internal/order/domain"
)

// Gateway creates payment intents at the external provider.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, receipt string) (string, error)
	KeyID() string
}

// Ledger is the slice of the order service settlement needs.
type Ledger interface {
	Get(ctx context.Context, orderID string) (orderdom.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (orderdom.Order, error)
	AttachPaymentIntent(ctx context.Context, orderID, intentID string) error
	Confirm(ctx context.Context, orderID string) (orderdom.Order, error)
}

// CartCleaner clears purchased lines after settlement.
type CartCleaner interface {
	ClearPurchased(ctx context.Context, userID string, lines []cartdom.PurchasedLine) error
}

// Deduper is the advisory fast path for repeated callback deliveries.
type Deduper interface {
	CallbackKey(orderRef, paymentRef string) string
	Seen(ctx context.Context, key string) (bool, error)
}
