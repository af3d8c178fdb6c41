package application

import (
	"context"
	"time"

	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
	"github.com/vastralabs/vastra/internal/tryon/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	// ClaimQueued atomically moves up to limit QUEUED sessions to PROCESSING
	// under a lease held by workerID, skipping rows other workers hold.
	ClaimQueued(ctx context.Context, workerID string, limit int, lease time.Duration) ([]domain.Session, error)
	// MarkCompleted runs the guarded PROCESSING to COMPLETED update and
	// writes the TryOnCompleted event in the same transaction. A lost claim
	// surfaces as domain.ErrStaleClaim.
	MarkCompleted(ctx context.Context, id, resultURL string, payload []byte) error
	MarkFailed(ctx context.Context, id, message string, payload []byte) error
	// ReclaimStale returns PROCESSING sessions with lapsed leases to QUEUED.
	ReclaimStale(ctx context.Context) (int64, error)
}

type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

type Synthesizer interface {
	Generate(ctx context.Context, personImageURL, garmentImageURL string) ([]byte, error)
}

type GarmentCatalog interface {
	Get(ctx context.Context, id string) (catalogdom.Garment, error)
}
