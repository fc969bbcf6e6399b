package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order lifecycle states. Pending orders move to
// Delivered through the delivery processor; Shipped and Cancelled are
// reachable through external fulfilment tooling.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Order is an immutable record of a completed checkout. Total is a snapshot
// taken at checkout time and is never recomputed.
type Order struct {
	ID        string
	UserID    string
	Status    Status
	Total     decimal.Decimal
	OrderDate time.Time
}

// LineItem freezes a purchased line: unit price and line total are captured
// at checkout and do not follow later price changes.
type LineItem struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// Draft is the fully-priced checkout unit handed to the repository for the
// atomic commit. IDs are generated by the service so the caller gets them
// back regardless of storage internals.
type Draft struct {
	OrderID   string
	PaymentID string
	CartID    string
	UserID    string
	Method    string
	Items     []LineItem
	Total     decimal.Decimal
}

// Receipt identifies the order and payment created by a checkout.
type Receipt struct {
	OrderID   string
	PaymentID string
	Total     decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateFromCart atomically commits a checkout: order + frozen line
	// items + stock decrement + pending payment + cart drain. Stock is
	// revalidated under row locks; a violation aborts the whole unit with
	// catalog.InsufficientStockError and no writes.
	CreateFromCart(ctx context.Context, d *Draft) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// TotalSpent sums order_total over the user's non-cancelled orders.
	TotalSpent(ctx context.Context, userID string) (decimal.Decimal, error)
}
