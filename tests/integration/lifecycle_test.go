//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mivanenko/shopflow/internal/domain/cart"
	"github.com/mivanenko/shopflow/internal/domain/catalog"
	"github.com/mivanenko/shopflow/internal/domain/delivery"
	"github.com/mivanenko/shopflow/internal/domain/order"
	"github.com/mivanenko/shopflow/internal/domain/payment"
	"github.com/mivanenko/shopflow/internal/domain/review"
	storage "github.com/mivanenko/shopflow/internal/storage/postgres"
)

type env struct {
	products   *storage.ProductRepository
	carts      *cart.Service
	orders     *order.Service
	payments   *payment.Service
	deliveries *delivery.Service
	reviews    *review.Service
}

func newEnv() *env {
	productRepo := storage.NewProductRepository(pool)
	cartRepo := storage.NewCartRepository(pool)
	orderRepo := storage.NewOrderRepository(pool)

	return &env{
		products:   productRepo,
		carts:      cart.NewService(productRepo, nil, cartRepo, orderRepo),
		orders:     order.NewService(cartRepo, orderRepo),
		payments:   payment.NewService(storage.NewPaymentRepository(pool)),
		deliveries: delivery.NewService(storage.NewDeliveryRepository(pool)),
		reviews:    review.NewService(storage.NewReviewRepository(pool)),
	}
}

// TestOrderLifecycle walks one purchase through every stage: cart, checkout,
// payment, delivery, review.
func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "Keyboard", "49.90", 10)

	require.NoError(t, e.carts.Add(ctx, userID, productID, 2))

	view, err := e.carts.View(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("99.80")), "cart total %s", view.Total)
	assert.True(t, view.TotalSpent.IsZero())

	receipt, err := e.orders.Checkout(ctx, userID)
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("99.80")), "order total %s", receipt.Total)

	// Stock is decremented and the cart is drained.
	p, err := e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	_, err = e.orders.Checkout(ctx, userID)
	require.ErrorIs(t, err, cart.ErrNoActiveCart)

	// Delivery cannot run before the payment settles.
	_, err = e.deliveries.Process(ctx, receipt.PaymentID)
	require.ErrorIs(t, err, delivery.ErrPaymentNotPaid)

	paid, err := e.payments.Confirm(ctx, receipt.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Re-confirming is rejected and paid_at stays put.
	_, err = e.payments.Confirm(ctx, receipt.PaymentID)
	require.ErrorIs(t, err, payment.ErrAlreadyPaid)

	history, err := e.payments.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].PaidAt)
	// timestamp columns hold microseconds, so compare within a tolerance.
	assert.WithinDuration(t, *paid.PaidAt, *history[0].PaidAt, time.Millisecond)

	d, err := e.deliveries.Process(ctx, receipt.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusDelivered, d.Status)

	orders, err := e.orders.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.StatusDelivered, orders[0].Status)

	// The delivered order qualifies the user to review the product.
	rv, err := e.reviews.Add(ctx, userID, productID, 5, "clicky")
	require.NoError(t, err)
	assert.Equal(t, receipt.OrderID, rv.OrderID)

	rated, err := e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, rated.AvgRating, 0.001)

	// Historical spend now shows in the (empty) cart view.
	view, err = e.carts.View(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalSpent.Equal(decimal.RequireFromString("99.80")), "total spent %s", view.TotalSpent)
}

// TestPriceFreeze verifies order and payment totals never follow catalog
// price changes made after checkout.
func TestPriceFreeze(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "Mouse", "25.25", 5)

	require.NoError(t, e.carts.Add(ctx, userID, productID, 2))
	_, err := e.orders.Checkout(ctx, userID)
	require.NoError(t, err)

	// Reprice the product after checkout.
	p, err := e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	repriced := p.Product
	repriced.Price = decimal.RequireFromString("99.99")
	require.NoError(t, e.products.Upsert(ctx, &repriced))

	orders, err := e.orders.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Total.Equal(decimal.RequireFromString("50.50")), "order total %s", orders[0].Total)

	payments, err := e.payments.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(decimal.RequireFromString("50.50")), "payment amount %s", payments[0].Amount)
}

// TestRemoveItem covers the idempotent remove and cart total maintenance.
func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	p1 := seedProduct(t, ctx, "Desk", "100.00", 3)
	p2 := seedProduct(t, ctx, "Lamp", "20.00", 3)

	// Removing with no cart at all is a no-op.
	require.NoError(t, e.carts.Remove(ctx, userID, p1))

	require.NoError(t, e.carts.Add(ctx, userID, p1, 1))
	require.NoError(t, e.carts.Add(ctx, userID, p2, 2))

	view, err := e.carts.View(ctx, userID)
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("140.00")), "cart total %s", view.Total)

	require.NoError(t, e.carts.Remove(ctx, userID, p1))
	// Removing the same product again is still fine.
	require.NoError(t, e.carts.Remove(ctx, userID, p1))

	view, err = e.carts.View(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, p2, view.Items[0].ProductID)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("40.00")), "cart total %s", view.Total)
}

// TestAddAccumulatesQuantity verifies adding the same product twice merges
// into one line.
func TestAddAccumulatesQuantity(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "Cable", "5.00", 10)

	require.NoError(t, e.carts.Add(ctx, userID, productID, 2))
	require.NoError(t, e.carts.Add(ctx, userID, productID, 3))

	view, err := e.carts.View(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("25.00")), "cart total %s", view.Total)
}

// TestReviewUpsert verifies last-write-wins without duplicate rows.
func TestReviewUpsert(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "Monitor", "150.00", 5)

	require.NoError(t, e.carts.Add(ctx, userID, productID, 1))
	receipt, err := e.orders.Checkout(ctx, userID)
	require.NoError(t, err)
	_, err = e.payments.Confirm(ctx, receipt.PaymentID)
	require.NoError(t, err)
	_, err = e.deliveries.Process(ctx, receipt.PaymentID)
	require.NoError(t, err)

	_, err = e.reviews.Add(ctx, userID, productID, 5, "sharp")
	require.NoError(t, err)
	_, err = e.reviews.Add(ctx, userID, productID, 2, "dead pixels showed up")
	require.NoError(t, err)

	reviews, err := e.reviews.ForProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 2, reviews[0].Rating)
	assert.Equal(t, "dead pixels showed up", reviews[0].Comment)
}

// TestReviewRequiresQualifyingOrder: a pending (undelivered) order does not
// make the buyer eligible.
func TestReviewRequiresQualifyingOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "Chair", "80.00", 5)

	_, err := e.reviews.Add(ctx, userID, productID, 4, "never bought it")
	require.ErrorIs(t, err, review.ErrNotEligible)

	require.NoError(t, e.carts.Add(ctx, userID, productID, 1))
	_, err = e.orders.Checkout(ctx, userID)
	require.NoError(t, err)

	// Order exists but is still Pending.
	_, err = e.reviews.Add(ctx, userID, productID, 4, "still in transit")
	require.ErrorIs(t, err, review.ErrNotEligible)
}

// TestCancelledOrdersExcludedFromSpend verifies the spend aggregate skips
// cancelled orders.
func TestCancelledOrdersExcludedFromSpend(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "Headset", "60.00", 10)

	require.NoError(t, e.carts.Add(ctx, userID, productID, 1))
	receipt, err := e.orders.Checkout(ctx, userID)
	require.NoError(t, err)

	// Cancel out of band, the way fulfilment tooling would.
	_, err = pool.Exec(ctx, `UPDATE orders SET status = 'Cancelled' WHERE id = $1`, receipt.OrderID)
	require.NoError(t, err)

	view, err := e.carts.View(ctx, userID)
	require.NoError(t, err)
	assert.True(t, view.TotalSpent.IsZero(), "total spent %s", view.TotalSpent)
}

// TestDeliveryHistoryNewestFirst runs two purchases back to back and checks
// the delivery listing leads with the later one.
func TestDeliveryHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "Webcam", "45.00", 10)

	paymentIDs := make([]string, 2)
	for i := range paymentIDs {
		require.NoError(t, e.carts.Add(ctx, userID, productID, 1))
		receipt, err := e.orders.Checkout(ctx, userID)
		require.NoError(t, err)
		_, err = e.payments.Confirm(ctx, receipt.PaymentID)
		require.NoError(t, err)
		paymentIDs[i] = receipt.PaymentID
	}

	deliveries, err := e.deliveries.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, paymentIDs[1], deliveries[0].PaymentID)
	assert.Equal(t, paymentIDs[0], deliveries[1].PaymentID)
}

// TestAddItemVanishedProduct exercises the repository directly with a product
// ID that has no row, bypassing the service's catalog check. The broken
// reference must surface as the catalog's not-found error.
func TestAddItemVanishedProduct(t *testing.T) {
	ctx := context.Background()

	userID := createUser(t, ctx)
	cartRepo := storage.NewCartRepository(pool)

	err := cartRepo.AddItem(ctx, userID, uuid.New().String(), 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	// The failed add must not leave a half-built cart behind.
	_, _, err = cartRepo.ActiveCart(ctx, userID)
	require.ErrorIs(t, err, cart.ErrNoActiveCart)
}

// TestCheckoutInsufficientStock: a cart holding more than current stock is
// rejected with the shortfall, and nothing is written.
func TestCheckoutInsufficientStock(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	userID := createUser(t, ctx)
	productID := seedProduct(t, ctx, "SSD", "90.00", 5)

	require.NoError(t, e.carts.Add(ctx, userID, productID, 5))

	// Stock drains between add and checkout.
	p, err := e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	drained := p.Product
	drained.Stock = 2
	require.NoError(t, e.products.Upsert(ctx, &drained))

	_, err = e.orders.Checkout(ctx, userID)
	var stockErr *catalog.InsufficientStockError
	require.Error(t, err)
	require.True(t, errors.As(err, &stockErr), "got %T: %v", err, err)
	assert.Equal(t, 2, stockErr.Available)

	// The cart survives the failed checkout.
	view, err := e.carts.View(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	orders, err := e.orders.History(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
