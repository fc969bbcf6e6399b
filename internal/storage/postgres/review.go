package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mivanenko/shopflow/internal/domain/review"
)

const (
	qualifyingOrderSQL = `SELECT o.id
	FROM orders o
	JOIN order_items oi ON oi.order_id = o.id
	WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status IN ('Shipped', 'Delivered')
	ORDER BY o.order_date
	LIMIT 1`

	upsertReviewSQL = `INSERT INTO reviews (product_id, user_id, order_id, rating, comment)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (product_id, user_id) DO UPDATE SET
		rating = EXCLUDED.rating,
		comment = EXCLUDED.comment`

	listReviewsByProductSQL = `SELECT r.product_id, r.user_id, r.order_id, r.rating, r.comment, r.created_at, u.name
	FROM reviews r
	JOIN users u ON u.id = r.user_id
	WHERE r.product_id = $1
	ORDER BY r.rating DESC, r.user_id`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// QualifyingOrder returns the oldest Shipped or Delivered order by the user
// containing the product, or review.ErrNotEligible.
func (r *ReviewRepository) QualifyingOrder(ctx context.Context, userID, productID string) (string, error) {
	var orderID string
	err := r.pool.QueryRow(ctx, qualifyingOrderSQL, userID, productID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", review.ErrNotEligible
		}
		return "", fmt.Errorf("finding qualifying order: %w", err)
	}
	return orderID, nil
}

// Upsert creates the review or overwrites rating and comment for an
// existing (product, user) pair. The attached order is kept from the
// original submission.
func (r *ReviewRepository) Upsert(ctx context.Context, rv *review.Review) error {
	_, err := r.pool.Exec(ctx, upsertReviewSQL,
		rv.ProductID, rv.UserID, rv.OrderID, rv.Rating, rv.Comment,
	)
	if err != nil {
		return fmt.Errorf("upserting review: %w", err)
	}
	return nil
}

// ListByProduct returns a product's reviews with reviewer names, best
// rating first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listReviewsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}

	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (review.Review, error) {
		var rv review.Review
		err := row.Scan(&rv.ProductID, &rv.UserID, &rv.OrderID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UserName)
		return rv, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning reviews: %w", err)
	}
	return reviews, nil
}
