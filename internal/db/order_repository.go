package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

// orderSelect aggregates the order's product ids in one round trip.
const orderSelect = `
	SELECT o.id, o.customer_id, o.total_amount, o.order_date,
	       COALESCE(array_agg(op.product_id ORDER BY op.product_id)
	                FILTER (WHERE op.product_id IS NOT NULL), '{}')
	FROM orders o
	LEFT JOIN order_products op ON op.order_id = o.id
`

type OrderRepository struct {
	conn        *sql.DB
	lockTimeout time.Duration
}

// NewOrderRepository returns the order store. lockTimeout bounds how long a
// transaction waits on a product row lock; zero keeps the server default.
func NewOrderRepository(database *PostgresDB, lockTimeout time.Duration) *OrderRepository {
	return &OrderRepository{conn: database.Conn, lockTimeout: lockTimeout}
}

var (
	_ store.OrderRepository = (*OrderRepository)(nil)
	_ store.TxRunner        = (*OrderRepository)(nil)
)

func (r *OrderRepository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	row := r.conn.QueryRowContext(ctx, orderSelect+" WHERE o.id = $1 GROUP BY o.id", id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to get order %d", id), err)
	}
	return o, nil
}

// ListOrders returns newest orders first.
func (r *OrderRepository) ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	query := orderSelect
	var args []any
	if f.CustomerID != 0 {
		query += " WHERE o.customer_id = $1"
		args = append(args, f.CustomerID)
	}
	query += " GROUP BY o.id ORDER BY o.id DESC"

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("failed to query orders", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to read orders", err)
	}
	return orders, nil
}

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var (
		o   models.Order
		ids pq.Int64Array
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.CreatedAt, &ids); err != nil {
		return nil, err
	}
	o.ProductIDs = []int64(ids)
	return &o, nil
}

// RunInTx runs fn inside a READ COMMITTED transaction. Rollback is deferred,
// so every return path other than a successful commit undoes the writes.
func (r *OrderRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sqlTx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify("failed to begin transaction", err)
	}
	defer sqlTx.Rollback()

	if r.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := sqlTx.ExecContext(ctx, stmt); err != nil {
			return classify("failed to set lock timeout", err)
		}
	}

	if err := fn(ctx, &pgTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return classify("failed to commit transaction", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return getCustomer(ctx, t.tx, id)
}

// LockProducts takes row locks in ascending id order so that concurrent
// orders over overlapping products cannot deadlock.
func (t *pgTx) LockProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE"
	rows, err := t.tx.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, classify("failed to lock products", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (t *pgTx) SaveOrder(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, total_amount)
		VALUES ($1, $2)
		RETURNING id, order_date
	`
	if err := t.tx.QueryRowContext(ctx, query, o.CustomerID, o.TotalAmount).Scan(&o.ID, &o.CreatedAt); err != nil {
		return classify("failed to insert order", err)
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_products (order_id, product_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, o.ID, pq.Array(o.ProductIDs))
	if err != nil {
		return classify("failed to insert order products", err)
	}
	return nil
}

func (t *pgTx) SaveProductStock(ctx context.Context, p *models.Product) error {
	res, err := t.tx.ExecContext(ctx, "UPDATE products SET stock = $1 WHERE id = $2", p.Stock, p.ID)
	if err != nil {
		return classify(fmt.Sprintf("failed to update stock of product %d", p.ID), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update stock of product %d: %w", p.ID, store.ErrNotFound)
	}
	return nil
}
