package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vastralabs/vastra/internal/order/domain"
	"github.com/vastralabs/vastra/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) CreateWithOutbox(ctx context.Context, o domain.Order, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, shipping_address, subtotal_cents, shipping_cents,
			total_cents, status, payment_status, payment_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),$11,$12)`,
		o.ID, o.OrderNumber, o.UserID, addr, o.SubtotalCents, o.ShippingCents,
		o.TotalCents, o.Status, o.PaymentStatus, o.PaymentID, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, garment_id, size, quantity, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, item.GarmentID, item.Size, item.Quantity, item.UnitPriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", o.ID, outbox.TypeOrderCreated, payload, traceparent)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ConfirmWithOutbox is the settlement compare-and-set. Two concurrent
// deliveries race on the WHERE status='PENDING' guard; only the winner
// inserts the OrderConfirmed event.
func (r *Repository) ConfirmWithOutbox(ctx context.Context, orderID string, payload []byte, traceparent string) (bool, domain.Status, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=$3, updated_at=$4
		WHERE id=$1 AND status=$5`,
		orderID, domain.StatusConfirmed, domain.PaymentPaid, time.Now().UTC(), domain.StatusPending)
	if err != nil {
		return false, "", err
	}

	if ct.RowsAffected() == 0 {
		var status domain.Status
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", domain.ErrNotFound
		}
		if err != nil {
			return false, "", err
		}
		return false, status, tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", orderID, outbox.TypeOrderConfirmed, payload, traceparent)
	if err != nil {
		return false, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, "", err
	}
	return true, domain.StatusConfirmed, nil
}

// AttachPaymentIntent records the gateway intent id, guarded on PENDING so a
// late or replayed initiation can never rewrite the payment id of an order
// that already settled.
func (r *Repository) AttachPaymentIntent(ctx context.Context, orderID, intentID string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE orders SET payment_id=$2, updated_at=$3 WHERE id=$1 AND status=$4`,
		orderID, intentID, time.Now().UTC(), domain.StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var status domain.Status
		err := r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, orderID, status)
	}
	return nil
}

const orderColumns = `id, order_number, user_id, shipping_address, subtotal_cents, shipping_cents,
	total_cents, status, payment_status, COALESCE(payment_id, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var addr []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &addr, &o.SubtotalCents, &o.ShippingCents,
		&o.TotalCents, &o.Status, &o.PaymentStatus, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) get(ctx context.Context, query string, args ...any) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.Items, err = r.items(ctx, o.ID)
	return o, err
}

func (r *Repository) items(ctx context.Context, orderID string) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT garment_id, size, quantity, unit_price_cents FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.GarmentID, &it.Size, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *Repository) GetForUser(ctx context.Context, id, userID string) (domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2`, id, userID)
}

func (r *Repository) FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_id=$1`, paymentID)
}

func (r *Repository) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}
