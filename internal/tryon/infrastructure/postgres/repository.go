package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vastralabs/vastra/internal/tryon/domain"
	"github.com/vastralabs/vastra/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, s domain.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tryon_sessions (id, user_id, garment_id, input_image_url, status, share_token,
			created_at, updated_at, expires_at)
		VALUES ($1,NULLIF($2,''),$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.UserID, s.GarmentID, s.InputImageURL, s.Status, s.ShareToken,
		s.CreatedAt, s.UpdatedAt, s.ExpiresAt)
	return err
}

const sessionColumns = `id, COALESCE(user_id, ''), garment_id, input_image_url,
	COALESCE(result_image_url, ''), COALESCE(error_message, ''), status, share_token,
	COALESCE(worker_id, ''), COALESCE(lease_until, 'epoch'::timestamptz), created_at, updated_at, expires_at`

func scanSession(row pgx.Row) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.GarmentID, &s.InputImageURL,
		&s.ResultImageURL, &s.ErrorMessage, &s.Status, &s.ShareToken,
		&s.WorkerID, &s.LeaseUntil, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt)
	return s, err
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM tryon_sessions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, err
}

// ClaimQueued picks QUEUED sessions with FOR UPDATE SKIP LOCKED and moves
// them to PROCESSING under a lease, all in one transaction. Competing
// workers never claim the same row.
func (r *Repository) ClaimQueued(ctx context.Context, workerID string, limit int, lease time.Duration) ([]domain.Session, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id FROM tryon_sessions
		WHERE status = $1
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
		LIMIT $2`, domain.StatusQueued, limit)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, tx.Commit(ctx)
	}

	claimed, err := tx.Query(ctx, `
		UPDATE tryon_sessions
		SET status=$2, worker_id=$3, lease_until=now() + $4::interval, updated_at=now()
		WHERE id = ANY($1)
		RETURNING `+sessionColumns, ids, domain.StatusProcessing, workerID, lease.String())
	if err != nil {
		return nil, err
	}
	defer claimed.Close()

	var sessions []domain.Session
	for claimed.Next() {
		s, err := scanSession(claimed)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := claimed.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *Repository) MarkCompleted(ctx context.Context, id, resultURL string, payload []byte) error {
	return r.finish(ctx, id, domain.StatusCompleted, outbox.TypeTryOnCompleted, payload,
		`result_image_url=$3`, resultURL)
}

func (r *Repository) MarkFailed(ctx context.Context, id, message string, payload []byte) error {
	return r.finish(ctx, id, domain.StatusFailed, outbox.TypeTryOnFailed, payload,
		`error_message=$3`, message)
}

// finish is the terminal compare-and-set: only a row still PROCESSING can be
// completed or failed, and the matching outbox event rides the same
// transaction. Losing the guard means the claim lapsed and was re-run.
func (r *Repository) finish(ctx context.Context, id string, status domain.Status, eventType string, payload []byte, setClause, setValue string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `
		UPDATE tryon_sessions
		SET status=$2, `+setClause+`, worker_id=NULL, lease_until=NULL, updated_at=now()
		WHERE id=$1 AND status=$4`,
		id, status, setValue, domain.StatusProcessing)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrStaleClaim
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, status)
		VALUES ($1,$2,$3,$4,'pending')`,
		"tryon_session", id, eventType, payload)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ReclaimStale returns PROCESSING rows whose lease lapsed to QUEUED so a
// crashed worker's jobs are re-executed instead of stranded.
func (r *Repository) ReclaimStale(ctx context.Context) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE tryon_sessions
		SET status=$1, worker_id=NULL, lease_until=NULL, updated_at=now()
		WHERE status=$2 AND lease_until < now()`,
		domain.StatusQueued, domain.StatusProcessing)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
