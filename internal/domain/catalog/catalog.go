package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a requested quantity exceeds the
// product's available stock. Available carries the count observed at the
// time of the check.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: %d available", e.ProductName, e.Available)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
}

// RatedProduct is a product together with its aggregated review rating.
// AvgRating is 0 for products without reviews, never null-propagated, so
// rated listings sort and compare uniformly.
type RatedProduct struct {
	Product
	AvgRating float64
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]RatedProduct, error)
	GetByID(ctx context.Context, id string) (*RatedProduct, error)
	// TopRated returns up to limit products ordered by average rating
	// descending, then remaining stock descending.
	TopRated(ctx context.Context, limit int) ([]RatedProduct, error)
	// IDs returns every product ID. Used to build the startup ID filter.
	IDs(ctx context.Context) ([]string, error)
}
