package review

import (
	"context"

	"github.com/go-faster/errors"
)

// Service gates review submission on purchase history and applies the
// last-write-wins upsert policy.
type Service struct {
	reviews Repository
}

// NewService creates a review Service backed by the given repository.
func NewService(reviews Repository) *Service {
	return &Service{reviews: reviews}
}

// Add validates the rating, checks eligibility, and upserts the review.
//
// Eligibility is re-validated on every call, including overwrites of an
// existing review: editing a review requires a currently qualifying order.
func (s *Service) Add(ctx context.Context, userID, productID string, rating int, comment string) (*Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}

	orderID, err := s.reviews.QualifyingOrder(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, ErrNotEligible) {
			return nil, ErrNotEligible
		}
		return nil, errors.Wrap(err, "check eligibility")
	}

	r := &Review{
		ProductID: productID,
		UserID:    userID,
		OrderID:   orderID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviews.Upsert(ctx, r); err != nil {
		return nil, errors.Wrap(err, "upsert review")
	}
	return r, nil
}

// ForProduct returns a product's reviews ordered by rating descending.
func (s *Service) ForProduct(ctx context.Context, productID string) ([]Review, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return reviews, nil
}
