package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mivanenko/shopflow/internal/domain/cart"
	"github.com/mivanenko/shopflow/internal/domain/catalog"
	"github.com/mivanenko/shopflow/internal/domain/order"
)

const (
	// The cart row is locked and revalidated before anything else so two
	// checkouts of the same cart serialize: the loser wakes up to an
	// Inactive cart and aborts with no writes. Item mutations lock the same
	// row, so a line added mid-checkout waits and lands in a fresh cart.
	lockCartStatusSQL = `SELECT status FROM carts WHERE id = $1 FOR UPDATE`

	lockProductStockSQL = `SELECT name, stock_quantity FROM products WHERE id = $1 FOR UPDATE`

	insertOrderSQL = `INSERT INTO orders (id, user_id, status, order_total)
	VALUES ($1, $2, 'Pending', $3)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, unit_price, quantity, line_total)
	VALUES ($1, $2, $3, $4, $5)`

	decrementStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $1 WHERE id = $2`

	insertPaymentSQL = `INSERT INTO payments (id, order_id, method, amount, pay_status)
	VALUES ($1, $2, $3, $4, 'Pending')`

	clearCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	deactivateCartSQL = `UPDATE carts SET status = 'Inactive', price = 0 WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, status, order_total, order_date
	FROM orders WHERE user_id = $1 ORDER BY order_date DESC`

	totalSpentSQL = `SELECT COALESCE(SUM(order_total), 0)
	FROM orders WHERE user_id = $1 AND status <> 'Cancelled'`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart commits a checkout as one transaction: it locks the cart
// row and confirms it is still active, locks the product rows, revalidates
// stock, writes the order with frozen line items, decrements stock, opens
// the pending payment, and drains the cart. Any failure rolls back every
// part. A checkout that loses the cart lock to another checkout of the same
// cart returns cart.ErrNoActiveCart.
func (r *OrderRepository) CreateFromCart(ctx context.Context, d *order.Draft) error {
	// Lock product rows in ascending ID order so overlapping checkouts
	// cannot deadlock; arrival at the first contended row decides who gets
	// the remaining stock.
	items := make([]order.LineItem, len(d.Items))
	copy(items, d.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var cartStatus string
		if err := tx.QueryRow(ctx, lockCartStatusSQL, d.CartID).Scan(&cartStatus); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cart.ErrNoActiveCart
			}
			return fmt.Errorf("locking cart %q: %w", d.CartID, err)
		}
		if cartStatus != string(cart.StatusActive) {
			return cart.ErrNoActiveCart
		}

		for _, item := range items {
			var (
				name  string
				stock int
			)
			err := tx.QueryRow(ctx, lockProductStockSQL, item.ProductID).Scan(&name, &stock)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return catalog.ErrNotFound
				}
				return fmt.Errorf("locking product %q: %w", item.ProductID, err)
			}
			if item.Quantity > stock {
				return &catalog.InsufficientStockError{ProductName: name, Available: stock}
			}
		}

		if _, err := tx.Exec(ctx, insertOrderSQL, d.OrderID, d.UserID, d.Total); err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		for _, item := range items {
			_, err := tx.Exec(ctx, insertOrderItemSQL,
				d.OrderID, item.ProductID, item.UnitPrice, item.Quantity, item.LineTotal,
			)
			if err != nil {
				return fmt.Errorf("inserting order item %q: %w", item.ProductID, err)
			}
			if _, err := tx.Exec(ctx, decrementStockSQL, item.Quantity, item.ProductID); err != nil {
				return fmt.Errorf("decrementing stock for %q: %w", item.ProductID, err)
			}
		}

		if _, err := tx.Exec(ctx, insertPaymentSQL, d.PaymentID, d.OrderID, d.Method, d.Total); err != nil {
			return fmt.Errorf("inserting payment: %w", err)
		}

		if _, err := tx.Exec(ctx, clearCartItemsSQL, d.CartID); err != nil {
			return fmt.Errorf("clearing cart items: %w", err)
		}
		if _, err := tx.Exec(ctx, deactivateCartSQL, d.CartID); err != nil {
			return fmt.Errorf("deactivating cart: %w", err)
		}
		return nil
	})
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		var o order.Order
		err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.OrderDate)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning orders: %w", err)
	}
	return orders, nil
}

// TotalSpent sums order_total over the user's non-cancelled orders.
func (r *OrderRepository) TotalSpent(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, totalSpentSQL, userID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("summing spend: %w", err)
	}
	return total, nil
}
