package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Service drives the Pending -> Paid transition. Delivery creation is a
// side effect of the transition and happens inside the same transaction;
// the original system left this to a database trigger.
type Service struct {
	payments Repository
	now      func() time.Time
}

// NewService creates a payment Service backed by the given repository.
func NewService(payments Repository) *Service {
	return &Service{
		payments: payments,
		now:      time.Now,
	}
}

// Confirm marks the payment Paid and creates its delivery record. A second
// confirmation fails with ErrAlreadyPaid and leaves paid_at untouched.
func (s *Service) Confirm(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := s.payments.Confirm(ctx, paymentID, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, ErrAlreadyPaid):
			return nil, ErrAlreadyPaid
		}
		return nil, errors.Wrap(err, "confirm payment")
	}

	zctx.From(ctx).Info("payment confirmed",
		zap.String("payment_id", p.ID),
		zap.String("order_id", p.OrderID),
	)
	return p, nil
}

// History returns the user's payments, most recently paid first.
func (s *Service) History(ctx context.Context, userID string) ([]Payment, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list payments")
	}
	return payments, nil
}
