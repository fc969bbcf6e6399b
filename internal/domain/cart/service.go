package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mivanenko/shopflow/internal/domain/catalog"
)

// Service encapsulates cart business logic: stock pre-checks on add, the
// idempotent remove, and the cart view with live stock warnings.
type Service struct {
	products catalog.Repository
	filter   *catalog.IDFilter
	carts    Repository
	spend    SpendReader
}

// NewService creates a cart Service. filter may be nil, in which case every
// lookup goes straight to the repository.
func NewService(products catalog.Repository, filter *catalog.IDFilter, carts Repository, spend SpendReader) *Service {
	return &Service{
		products: products,
		filter:   filter,
		carts:    carts,
		spend:    spend,
	}
}

// Add puts quantity units of a product into the user's active cart,
// creating the cart if needed. The stock check here is advisory only; the
// authoritative check happens under a row lock at checkout.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !s.filter.MayContain(productID) {
		return catalog.ErrNotFound
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.ErrNotFound
		}
		return errors.Wrap(err, "get product")
	}
	if quantity > p.Stock {
		return &catalog.InsufficientStockError{ProductName: p.Name, Available: p.Stock}
	}

	if err := s.carts.AddItem(ctx, userID, productID, quantity); err != nil {
		return errors.Wrap(err, "add cart item")
	}
	return nil
}

// Remove deletes a product from the user's active cart. Removing a product
// that is not in the cart (or having no cart at all) is a no-op.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	if err := s.carts.RemoveItem(ctx, userID, productID); err != nil {
		return errors.Wrap(err, "remove cart item")
	}
	return nil
}

// View returns the cart read model: line items with live stock, non-fatal
// warnings for lines exceeding current stock, the cached cart total, and
// the user's historical spend. A user without an active cart gets an empty
// view, not an error.
func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	view := &View{
		Total:      decimal.Zero,
		TotalSpent: decimal.Zero,
	}

	c, items, err := s.carts.ActiveCart(ctx, userID)
	switch {
	case errors.Is(err, ErrNoActiveCart):
		// fall through with the empty view
	case err != nil:
		return nil, errors.Wrap(err, "get active cart")
	default:
		view.Items = items
		view.Total = c.Price
		for _, item := range items {
			if item.Quantity > item.Stock {
				view.Warnings = append(view.Warnings, StockWarning{
					ProductName: item.ProductName,
					Requested:   item.Quantity,
					Available:   item.Stock,
				})
			}
		}
	}

	spent, err := s.spend.TotalSpent(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "total spent")
	}
	view.TotalSpent = spent

	return view, nil
}
