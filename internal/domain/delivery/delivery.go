package delivery

import (
	"context"

	"github.com/go-faster/errors"
)

// Status enumerates delivery states. A delivery starts Pending when its
// payment is confirmed and becomes Delivered through Process.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusDelivered Status = "Delivered"
)

// Sentinel errors for delivery processing.
var (
	ErrNotFound = errors.New("delivery not found")
	// ErrPaymentNotPaid guards the Delivered transition: the owning payment
	// must be Paid first. Mirrors the original stored-procedure signal.
	ErrPaymentNotPaid = errors.New("payment is not paid")
)

// Delivery tracks fulfilment of exactly one payment.
type Delivery struct {
	ID        string
	PaymentID string
	OrderID   string
	Status    Status
	PayStatus string
}

// Repository defines persistence operations for deliveries.
type Repository interface {
	// Process atomically marks the delivery for the given payment as
	// Delivered and the parent order as Delivered. Returns ErrNotFound when
	// no delivery exists for the payment and ErrPaymentNotPaid when the
	// owning payment is still pending; in both cases nothing changes.
	Process(ctx context.Context, paymentID string) (*Delivery, error)
	ListByUser(ctx context.Context, userID string) ([]Delivery, error)
}
