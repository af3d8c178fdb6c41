package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vastralabs/vastra/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const garmentColumns = `id, name, description, category, image_url, thumbnail_url, price_cents, sizes, in_stock, stock_count, created_at`

func scanGarment(row pgx.Row) (domain.Garment, error) {
	var g domain.Garment
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Category, &g.ImageURL, &g.ThumbnailURL,
		&g.PriceCents, &g.Sizes, &g.InStock, &g.StockCount, &g.CreatedAt)
	return g, err
}

func (r *Repository) List(ctx context.Context, f domain.Filter) ([]domain.Garment, int, error) {
	where := `WHERE in_stock
		AND ($1 = '' OR category = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM garments `+where, f.Category, f.Search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+garmentColumns+` FROM garments `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, f.Category, f.Search, f.Limit, f.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var garments []domain.Garment
	for rows.Next() {
		g, err := scanGarment(rows)
		if err != nil {
			return nil, 0, err
		}
		garments = append(garments, g)
	}
	return garments, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Garment, error) {
	g, err := scanGarment(r.pool.QueryRow(ctx, `SELECT `+garmentColumns+` FROM garments WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Garment{}, domain.ErrNotFound
	}
	return g, err
}

func (r *Repository) GetBatch(ctx context.Context, ids []string) (map[string]domain.Garment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+garmentColumns+` FROM garments WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	garments := make(map[string]domain.Garment, len(ids))
	for rows.Next() {
		g, err := scanGarment(rows)
		if err != nil {
			return nil, err
		}
		garments[g.ID] = g
	}
	return garments, rows.Err()
}
