package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, cart_id, items, total, currency_code, status, payment_key, vendor_order_id, shipping, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	getOrderSQL = `SELECT id, cart_id, items, total, currency_code, status, payment_key, vendor_order_id, shipping, created_at, updated_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, cart_id, items, total, currency_code, status, payment_key, vendor_order_id, shipping, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	updateOrderSQL = `UPDATE orders
		SET status = $2, vendor_order_id = $3, updated_at = $4
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items and the shipping address are stored as JSONB; the total as NUMERIC.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CartID, itemsJSON, o.Total.Amount, o.Total.CurrencyCode,
		string(o.Status), o.PaymentKey, o.VendorOrderID, shippingJSON,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads one order by id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, getOrderSQL, id)
	o, err := scanOrder(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// List returns orders newest first.
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	orders := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// Update rewrites the mutable columns of an existing order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, string(o.Status), o.VendorOrderID, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o            order.Order
		itemsJSON    []byte
		shippingJSON []byte
		total        decimal.Decimal
		currency     string
		status       string
	)
	err := row.Scan(
		&o.ID, &o.CartID, &itemsJSON, &total, &currency,
		&status, &o.PaymentKey, &o.VendorOrderID, &shippingJSON,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshaling shipping address: %w", err)
	}
	o.Total = product.Price{Amount: total, CurrencyCode: currency}
	o.Status = order.Status(status)
	return &o, nil
}
