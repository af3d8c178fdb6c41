package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is one row of the transactional outbox. Domain writes insert pending
// rows inside the same transaction as the state change; the relay drains them.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RetryCount    int
	LastError     *string
}

// Event types emitted by this system.
const (
	TypeOrderCreated   = "OrderCreated"
	TypeOrderConfirmed = "OrderConfirmed"
	TypeTryOnCompleted = "TryOnCompleted"
	TypeTryOnFailed    = "TryOnFailed"
)
