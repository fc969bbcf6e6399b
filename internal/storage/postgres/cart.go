package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mivanenko/shopflow/internal/domain/cart"
	"github.com/mivanenko/shopflow/internal/domain/catalog"
)

const (
	// The active cart row is locked for the duration of a mutation so two
	// concurrent adds for the same user serialize on it.
	lockActiveCartSQL = `SELECT id FROM carts WHERE user_id = $1 AND status = 'Active' FOR UPDATE`

	// The partial unique index on (user_id) WHERE status='Active' makes the
	// insert race-safe: the loser of a concurrent create inserts nothing
	// and picks up the winner's cart on re-select.
	insertCartSQL = `INSERT INTO carts (id, user_id, status, price)
	VALUES ($1, $2, 'Active', 0)
	ON CONFLICT (user_id) WHERE status = 'Active' DO NOTHING`

	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
	VALUES ($1, $2, $3)
	ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	// The former database trigger, made explicit: after every item
	// mutation the cached cart price is recomputed from live product
	// prices inside the same transaction.
	recomputeCartPriceSQL = `UPDATE carts SET price = COALESCE((
		SELECT SUM(ci.quantity * p.price)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
	), 0) WHERE id = $1`

	getActiveCartSQL = `SELECT id, user_id, status, price
	FROM carts WHERE user_id = $1 AND status = 'Active'`

	getCartItemsSQL = `SELECT ci.product_id, p.name, p.price, ci.quantity, p.stock_quantity
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.cart_id = $1
	ORDER BY ci.product_id`
)

// foreignKeyViolation is the PostgreSQL error code for broken references.
const foreignKeyViolation = "23503"

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// AddItem upserts a cart line and recomputes the cached cart price, all in
// one transaction. The user's active cart is created on first use.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		cartID, err := lockOrCreateActiveCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, upsertCartItemSQL, cartID, productID, quantity); err != nil {
			// The product row can vanish between the caller's existence
			// check and this insert.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return catalog.ErrNotFound
			}
			return fmt.Errorf("upserting cart item: %w", err)
		}
		if _, err := tx.Exec(ctx, recomputeCartPriceSQL, cartID); err != nil {
			return fmt.Errorf("recomputing cart price: %w", err)
		}
		return nil
	})
}

// RemoveItem deletes a cart line and recomputes the cached cart price.
// Missing carts and missing lines are both no-ops.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var cartID string
		err := tx.QueryRow(ctx, lockActiveCartSQL, userID).Scan(&cartID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("locking active cart: %w", err)
		}

		if _, err := tx.Exec(ctx, deleteCartItemSQL, cartID, productID); err != nil {
			return fmt.Errorf("deleting cart item: %w", err)
		}
		if _, err := tx.Exec(ctx, recomputeCartPriceSQL, cartID); err != nil {
			return fmt.Errorf("recomputing cart price: %w", err)
		}
		return nil
	})
}

// ActiveCart returns the user's active cart and its items joined with live
// product data. Returns cart.ErrNoActiveCart when none exists.
func (r *CartRepository) ActiveCart(ctx context.Context, userID string) (*cart.Cart, []cart.Item, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getActiveCartSQL, userID).
		Scan(&c.ID, &c.UserID, &c.Status, &c.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, cart.ErrNoActiveCart
		}
		return nil, nil, fmt.Errorf("getting active cart: %w", err)
	}

	rows, err := r.pool.Query(ctx, getCartItemsSQL, c.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("getting cart items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var item cart.Item
		err := row.Scan(&item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.Stock)
		return item, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scanning cart items: %w", err)
	}

	return &c, items, nil
}

// lockOrCreateActiveCart returns the ID of the user's active cart, creating
// it when absent, with the row locked for the rest of the transaction.
func lockOrCreateActiveCart(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	var cartID string
	err := tx.QueryRow(ctx, lockActiveCartSQL, userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("locking active cart: %w", err)
	}

	if _, err := tx.Exec(ctx, insertCartSQL, uuid.New().String(), userID); err != nil {
		return "", fmt.Errorf("creating cart: %w", err)
	}
	if err := tx.QueryRow(ctx, lockActiveCartSQL, userID).Scan(&cartID); err != nil {
		return "", fmt.Errorf("re-reading created cart: %w", err)
	}
	return cartID, nil
}
