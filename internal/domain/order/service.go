package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mivanenko/shopflow/internal/domain/cart"
	"github.com/mivanenko/shopflow/internal/domain/catalog"
)

// DefaultMethod is the payment method recorded for checkouts until payment
// provider selection exists.
const DefaultMethod = "Online"

// Service is the checkout engine: it drains the user's active cart into an
// immutable order with frozen prices, a stock decrement, and a pending
// payment, all committed as one atomic unit by the repository.
type Service struct {
	carts  cart.Repository
	orders Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(carts cart.Repository, orders Repository) *Service {
	return &Service{
		carts:  carts,
		orders: orders,
	}
}

// Checkout converts the user's active cart into an order.
//
// The stock pass here is a pre-check against the cart's joined product
// data; the repository repeats it under row locks before committing, so a
// concurrent checkout that drains stock first surfaces as
// catalog.InsufficientStockError with nothing written.
func (s *Service) Checkout(ctx context.Context, userID string) (*Receipt, error) {
	c, items, err := s.carts.ActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNoActiveCart) {
			return nil, cart.ErrNoActiveCart
		}
		return nil, errors.Wrap(err, "get active cart")
	}
	if len(items) == 0 {
		return nil, cart.ErrNoActiveCart
	}

	// Freeze prices and compute the order total at the observed price.
	lines := make([]LineItem, len(items))
	total := decimal.Zero
	for i, item := range items {
		if item.Quantity > item.Stock {
			return nil, &catalog.InsufficientStockError{
				ProductName: item.ProductName,
				Available:   item.Stock,
			}
		}
		lineTotal := item.LineTotal()
		lines[i] = LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   lineTotal,
		}
		total = total.Add(lineTotal)
	}
	total = total.Round(2)

	draft := &Draft{
		OrderID:   uuid.New().String(),
		PaymentID: uuid.New().String(),
		CartID:    c.ID,
		UserID:    userID,
		Method:    DefaultMethod,
		Items:     lines,
		Total:     total,
	}
	if err := s.orders.CreateFromCart(ctx, draft); err != nil {
		var stockErr *catalog.InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, stockErr
		}
		// A concurrent checkout of the same cart deactivated it first.
		if errors.Is(err, cart.ErrNoActiveCart) {
			return nil, cart.ErrNoActiveCart
		}
		return nil, errors.Wrap(err, "create order")
	}

	return &Receipt{
		OrderID:   draft.OrderID,
		PaymentID: draft.PaymentID,
		Total:     total,
	}, nil
}

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}
