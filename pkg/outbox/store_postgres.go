package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore reads the shared outbox table. Rows are written by the order and
// try-on repositories inside their own transactions.
type PGStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewPGStore(log *slog.Logger, pool *pgxpool.Pool) *PGStore {
	return &PGStore{log: log, pool: pool}
}

func (s *PGStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, traceparent, created_at
		FROM outbox
		WHERE status = 'pending'
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type, &ev.Payload, &ev.Traceparent, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}

	_, err = tx.Exec(ctx, `UPDATE outbox SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval WHERE id = ANY($3)`,
		relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *PGStore) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status='sent' WHERE id = ANY($1)`, ids)
	return err
}

// maxDispatchRetries bounds redelivery attempts. A row that keeps failing
// parks as failed for operator replay instead of looping forever.
const maxDispatchRetries = 5

// MarkFailed releases the row back to pending for the next drain, or parks it
// as failed once the retry budget is spent.
func (s *PGStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox
		SET status = CASE WHEN retry_count + 1 < $3 THEN 'pending' ELSE 'failed' END,
		    last_error = $2,
		    retry_count = retry_count + 1,
		    relay_id = NULL,
		    lease_until = NULL
		WHERE id = $1
	`, id, errMsg, maxDispatchRetries)
	return err
}

// ReclaimExpired returns in_progress rows whose lease lapsed to pending so a
// crashed relay does not strand them.
func (s *PGStore) ReclaimExpired(ctx context.Context) (int64, error) {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status='pending', relay_id=NULL, lease_until=NULL WHERE status='in_progress' AND lease_until < now()`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
