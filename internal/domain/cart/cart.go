package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates the cart lifecycle states. A cart becomes Inactive
// exactly once, at successful checkout, and is never deleted.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Sentinel errors for cart operations.
var (
	ErrNoActiveCart    = errors.New("no active cart")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Cart holds a user's open selection of items. Price is the cached total,
// kept equal to the sum of line totals by every mutation.
type Cart struct {
	ID     string
	UserID string
	Status Status
	Price  decimal.Decimal
}

// Item is a cart line joined with live product data. Stock reflects the
// product's current stock at read time, not a reservation.
type Item struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Stock       int
}

// LineTotal returns the item's quantity-extended price.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StockWarning flags a cart line whose quantity now exceeds available stock.
// Stock may have shifted since the item was added; this is advisory, not a
// block — checkout revalidates authoritatively.
type StockWarning struct {
	ProductName string
	Requested   int
	Available   int
}

// View is the read model returned by Service.View.
type View struct {
	Items      []Item
	Total      decimal.Decimal
	TotalSpent decimal.Decimal
	Warnings   []StockWarning
}

// Repository defines persistence operations for carts. Mutations run in a
// single transaction each and leave the cached cart price equal to the sum
// of quantity x live product price.
type Repository interface {
	// AddItem gets or creates the user's active cart and upserts the line,
	// incrementing quantity when the product is already present.
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	// RemoveItem deletes the line if present; removing an absent line is a
	// no-op, not an error.
	RemoveItem(ctx context.Context, userID, productID string) error
	// ActiveCart returns the user's active cart and its items joined with
	// live product data. Returns ErrNoActiveCart when none exists.
	ActiveCart(ctx context.Context, userID string) (*Cart, []Item, error)
}

// SpendReader reports a user's historical spend for loyalty display.
type SpendReader interface {
	// TotalSpent sums order_total over the user's non-cancelled orders.
	TotalSpent(ctx context.Context, userID string) (decimal.Decimal, error)
}
