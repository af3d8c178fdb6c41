package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vastralabs/vastra/internal/cart/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// ownerIDs maps the tagged Owner onto the two nullable columns.
func ownerIDs(o domain.Owner) (userID, sessionID *string) {
	id := o.ID()
	if o.IsUser() {
		return &id, nil
	}
	return nil, &id
}

func (r *Repository) ListForOwner(ctx context.Context, owner domain.Owner) ([]domain.Item, error) {
	userID, sessionID := ownerIDs(owner)
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, session_id, garment_id, size, quantity, created_at, updated_at
		FROM cart_items
		WHERE ($1::text IS NOT NULL AND user_id = $1) OR ($2::text IS NOT NULL AND session_id = $2)
		ORDER BY created_at`, userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (domain.Item, error) {
	var it domain.Item
	var userID, sessionID *string
	if err := row.Scan(&it.ID, &userID, &sessionID, &it.GarmentID, &it.Size, &it.Quantity, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return domain.Item{}, err
	}
	if userID != nil {
		it.Owner = domain.ForUser(*userID)
	} else if sessionID != nil {
		it.Owner = domain.ForGuest(*sessionID)
	}
	return it, nil
}

// Upsert relies on the partial unique indexes over (owner, garment, size):
// a conflicting insert folds its quantity into the existing row. This is the
// merge invariant, enforced by the store rather than read-then-write.
func (r *Repository) Upsert(ctx context.Context, item domain.Item) (domain.Item, error) {
	userID, sessionID := ownerIDs(item.Owner)

	var conflict string
	if item.Owner.IsUser() {
		conflict = `(user_id, garment_id, size) WHERE user_id IS NOT NULL`
	} else {
		conflict = `(session_id, garment_id, size) WHERE session_id IS NOT NULL`
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO cart_items (id, user_id, session_id, garment_id, size, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		ON CONFLICT `+conflict+` DO UPDATE
			SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, session_id, garment_id, size, quantity, created_at, updated_at`,
		item.ID, userID, sessionID, item.GarmentID, item.Size, item.Quantity, item.UpdatedAt)

	return scanItem(row)
}

func (r *Repository) Delete(ctx context.Context, owner domain.Owner, itemID string) error {
	userID, sessionID := ownerIDs(owner)
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items
		WHERE id = $1
		  AND (($2::text IS NOT NULL AND user_id = $2) OR ($3::text IS NOT NULL AND session_id = $3))`,
		itemID, userID, sessionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *Repository) DeletePurchased(ctx context.Context, userID string, lines []domain.PurchasedLine) error {
	garmentIDs := make([]string, 0, len(lines))
	sizes := make([]string, 0, len(lines))
	for _, l := range lines {
		garmentIDs = append(garmentIDs, l.GarmentID)
		sizes = append(sizes, l.Size)
	}
	_, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items
		USING unnest($2::text[], $3::text[]) AS purchased(garment_id, size)
		WHERE cart_items.user_id = $1
		  AND cart_items.garment_id = purchased.garment_id
		  AND cart_items.size = purchased.size`,
		userID, garmentIDs, sizes)
	return err
}
