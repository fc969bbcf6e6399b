package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mivanenko/shopflow/internal/domain/catalog"
)

const (
	// Average rating is aggregated in a subquery so products without
	// reviews still appear, with COALESCE pinning them to 0.
	ratedProductsSQL = `SELECT p.id, p.name, p.description, p.category, p.price, p.stock_quantity,
		COALESCE(r.avg_rating, 0) AS avg_rating
	FROM products p
	LEFT JOIN (
		SELECT product_id, AVG(rating) AS avg_rating
		FROM reviews
		GROUP BY product_id
	) r ON r.product_id = p.id`

	listProductsSQL = ratedProductsSQL + ` ORDER BY p.id`

	getProductByIDSQL = ratedProductsSQL + ` WHERE p.id = $1`

	topRatedProductsSQL = ratedProductsSQL + ` ORDER BY avg_rating DESC, p.stock_quantity DESC LIMIT $1`

	productIDsSQL = `SELECT id FROM products ORDER BY id`

	upsertProductSQL = `INSERT INTO products (id, name, description, category, price, stock_quantity)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		price = EXCLUDED.price,
		stock_quantity = EXCLUDED.stock_quantity`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products with their average rating, ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.RatedProduct, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanRatedProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	return products, nil
}

// GetByID returns a single product with its average rating. Returns
// catalog.ErrNotFound when no matching product exists.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.RatedProduct, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanRatedProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// TopRated returns up to limit products ranked by average rating, breaking
// ties by remaining stock.
func (r *ProductRepository) TopRated(ctx context.Context, limit int) ([]catalog.RatedProduct, error) {
	rows, err := r.pool.Query(ctx, topRatedProductsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top rated products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanRatedProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning top rated products: %w", err)
	}
	return products, nil
}

// IDs returns every product ID in the catalog.
func (r *ProductRepository) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, productIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing product ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning product ids: %w", err)
	}
	return ids, nil
}

// Upsert inserts or replaces a product. Used by the seeding command; the
// serving path never writes products outside the checkout stock decrement.
func (r *ProductRepository) Upsert(ctx context.Context, p *catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanRatedProduct(row pgx.CollectableRow) (catalog.RatedProduct, error) {
	var p catalog.RatedProduct
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.AvgRating)
	return p, err
}
