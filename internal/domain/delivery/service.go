package delivery

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Service completes deliveries for paid orders.
type Service struct {
	deliveries Repository
}

// NewService creates a delivery Service backed by the given repository.
func NewService(deliveries Repository) *Service {
	return &Service{deliveries: deliveries}
}

// Process marks the delivery for the given payment as Delivered, together
// with its parent order. The repository enforces the paid-payment guard.
func (s *Service) Process(ctx context.Context, paymentID string) (*Delivery, error) {
	d, err := s.deliveries.Process(ctx, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, ErrPaymentNotPaid):
			return nil, ErrPaymentNotPaid
		}
		return nil, errors.Wrap(err, "process delivery")
	}

	zctx.From(ctx).Info("delivery completed",
		zap.String("delivery_id", d.ID),
		zap.String("order_id", d.OrderID),
	)
	return d, nil
}

// History returns the user's deliveries, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Delivery, error) {
	deliveries, err := s.deliveries.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list deliveries")
	}
	return deliveries, nil
}
