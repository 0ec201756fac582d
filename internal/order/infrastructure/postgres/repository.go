package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/pix-payments/internal/order/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders_index (
	order_id       TEXT PRIMARY KEY,
	user_id        TEXT,
	status         TEXT NOT NULL CHECK (status IN ('AwaitingPayment', 'Confirmed', 'Cancelled')),
	mercadopago_id TEXT,
	status_detail  TEXT,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_orders (
	user_id        TEXT NOT NULL,
	order_id       TEXT NOT NULL,
	status         TEXT NOT NULL CHECK (status IN ('AwaitingPayment', 'Confirmed', 'Cancelled')),
	mercadopago_id TEXT,
	status_detail  TEXT,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, order_id)
);

CREATE TABLE IF NOT EXISTS outbox (
	id             BIGSERIAL PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	type           TEXT NOT NULL,
	payload        JSONB NOT NULL,
	headers        JSONB NOT NULL DEFAULT '{}'::jsonb,
	traceparent    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	relay_id       TEXT,
	lease_until    TIMESTAMPTZ,
	retry_count    INT NOT NULL DEFAULT 0,
	last_error     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS outbox_status_idx ON outbox (status, id);
`

const uniqueViolation = "23505"

// Repository stores the flat index copy and the user-scoped copy of each order in
// separate tables. Status updates touch them independently.
type Repository struct {
	log    *slog.Logger
	pool   *pgxpool.Pool
	source string
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, source string) *Repository {
	return &Repository{log: log, pool: pool, source: source}
}

func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Create writes both copies in one transaction. Only the upstream ordering flow
// creates orders; status reconciliation never does.
func (r *Repository) Create(ctx context.Context, o domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders_index (order_id, user_id, status, updated_at) VALUES ($1,NULLIF($2,''),$3,$4)`,
		o.ID, o.UserID, o.Status, o.UpdatedAt)
	if err != nil {
		return mapInsertErr(err)
	}
	if o.UserID != "" {
		_, err = tx.Exec(ctx, `INSERT INTO user_orders (user_id, order_id, status, updated_at) VALUES ($1,$2,$3,$4)`,
			o.UserID, o.ID, o.Status, o.UpdatedAt)
		if err != nil {
			return mapInsertErr(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetIndexed(ctx context.Context, orderID string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT order_id, COALESCE(user_id, ''), status, COALESCE(mercadopago_id, ''), COALESCE(status_detail, ''), updated_at
		FROM orders_index WHERE order_id=$1`, orderID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.MercadoPagoID, &o.StatusDetail, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *Repository) GetForUser(ctx context.Context, userID, orderID string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT order_id, user_id, status, COALESCE(mercadopago_id, ''), COALESCE(status_detail, ''), updated_at
		FROM user_orders WHERE user_id=$1 AND order_id=$2`, userID, orderID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.MercadoPagoID, &o.StatusDetail, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, err
}

// UpdateIndexed applies u to the index copy and queues an OrderStatusChanged event in
// the same transaction. A known owner is recorded only when the copy has none.
func (r *Repository) UpdateIndexed(ctx context.Context, u domain.StatusUpdate, traceparent string) error {
	if !u.Status.Valid() {
		return fmt.Errorf("refusing to store status %q", u.Status)
	}
	payload, err := json.Marshal(u.Event())
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `
		UPDATE orders_index
		SET status=$2, status_detail=$3, mercadopago_id=$4, updated_at=$5,
		    user_id=COALESCE(user_id, NULLIF($6, ''))
		WHERE order_id=$1`,
		u.OrderID, u.Status, u.StatusDetail, u.MercadoPagoID, u.UpdatedAt, u.UserID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	headers := map[string]string{"source": r.source}
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status) VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", u.OrderID, domain.EventStatusChanged, payload, headers, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) UpdateForUser(ctx context.Context, u domain.StatusUpdate) error {
	if !u.Status.Valid() {
		return fmt.Errorf("refusing to store status %q", u.Status)
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE user_orders
		SET status=$3, status_detail=$4, mercadopago_id=$5, updated_at=$6
		WHERE user_id=$1 AND order_id=$2`,
		u.UserID, u.OrderID, u.Status, u.StatusDetail, u.MercadoPagoID, u.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrOrderExists
	}
	return err
}
