package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Sentinel errors for review submission.
var (
	// ErrNotEligible is returned when the user has no Shipped or Delivered
	// order containing the product.
	ErrNotEligible   = errors.New("no qualifying order for this product")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Review is a user's rating of a purchased product. The (product, user)
// pair is unique; OrderID records the order that justified eligibility at
// creation time.
type Review struct {
	ProductID string
	UserID    string
	OrderID   string
	Rating    int
	Comment   string
	UserName  string
	CreatedAt time.Time
}

// Repository defines persistence operations for reviews.
type Repository interface {
	// QualifyingOrder returns the ID of the oldest order by the user that
	// contains the product with status Shipped or Delivered, or
	// ErrNotEligible when none exists.
	QualifyingOrder(ctx context.Context, userID, productID string) (string, error)
	// Upsert creates the review or, when the user already reviewed the
	// product, overwrites rating and comment (last write wins).
	Upsert(ctx context.Context, r *Review) error
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
}
