package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates payment states. Paid is terminal.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
)

// Sentinel errors for payment transitions.
var (
	ErrNotFound = errors.New("payment not found")
	// ErrAlreadyPaid rejects a second confirmation. paid_at is stamped
	// exactly once; re-confirming is an error, not a silent no-op.
	ErrAlreadyPaid = errors.New("payment already paid")
)

// Payment settles exactly one order. Amount equals the order total by
// construction: both are written in the checkout transaction.
type Payment struct {
	ID      string
	OrderID string
	Method  string
	Amount  decimal.Decimal
	Status  Status
	PaidAt  *time.Time
}

// Repository defines persistence operations for payments.
type Repository interface {
	// Confirm atomically marks a pending payment Paid at the given time and
	// creates its delivery record. Returns ErrNotFound for unknown IDs and
	// ErrAlreadyPaid when the payment is already settled.
	Confirm(ctx context.Context, paymentID string, paidAt time.Time) (*Payment, error)
	ListByUser(ctx context.Context, userID string) ([]Payment, error)
}
