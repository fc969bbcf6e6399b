package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mivanenko/shopflow/internal/domain/delivery"
	"github.com/mivanenko/shopflow/internal/domain/payment"
)

const (
	// Locks the delivery, its payment, and the parent order together so
	// the guard and both status updates act on one consistent snapshot.
	lockDeliverySQL = `SELECT d.id, d.payment_id, d.status, p.pay_status, o.id
	FROM deliveries d
	JOIN payments p ON p.id = d.payment_id
	JOIN orders o ON o.id = p.order_id
	WHERE d.payment_id = $1
	FOR UPDATE OF d, p, o`

	markDeliveredSQL = `UPDATE deliveries SET status = 'Delivered' WHERE id = $1`

	markOrderDeliveredSQL = `UPDATE orders SET status = 'Delivered' WHERE id = $1`

	listDeliveriesByUserSQL = `SELECT d.id, d.payment_id, d.status, p.pay_status, o.id
	FROM deliveries d
	JOIN payments p ON p.id = d.payment_id
	JOIN orders o ON o.id = p.order_id
	WHERE o.user_id = $1
	ORDER BY d.created_at DESC, d.id`
)

var _ delivery.Repository = (*DeliveryRepository)(nil)

// DeliveryRepository implements delivery.Repository backed by PostgreSQL.
type DeliveryRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRepository returns a DeliveryRepository that uses the given pool.
func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// Process marks the delivery for the given payment as Delivered along with
// its parent order, guarded on the payment being Paid. A failed guard
// leaves delivery and order untouched.
func (r *DeliveryRepository) Process(ctx context.Context, paymentID string) (*delivery.Delivery, error) {
	var d delivery.Delivery
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, lockDeliverySQL, paymentID).
			Scan(&d.ID, &d.PaymentID, &d.Status, &d.PayStatus, &d.OrderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return delivery.ErrNotFound
			}
			return fmt.Errorf("locking delivery for payment %q: %w", paymentID, err)
		}
		if d.PayStatus != string(payment.StatusPaid) {
			return delivery.ErrPaymentNotPaid
		}

		if _, err := tx.Exec(ctx, markDeliveredSQL, d.ID); err != nil {
			return fmt.Errorf("marking delivery delivered: %w", err)
		}
		if _, err := tx.Exec(ctx, markOrderDeliveredSQL, d.OrderID); err != nil {
			return fmt.Errorf("marking order delivered: %w", err)
		}

		d.Status = delivery.StatusDelivered
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByUser returns the user's deliveries, newest first.
func (r *DeliveryRepository) ListByUser(ctx context.Context, userID string) ([]delivery.Delivery, error) {
	rows, err := r.pool.Query(ctx, listDeliveriesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}

	deliveries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (delivery.Delivery, error) {
		var d delivery.Delivery
		err := row.Scan(&d.ID, &d.PaymentID, &d.Status, &d.PayStatus, &d.OrderID)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning deliveries: %w", err)
	}
	return deliveries, nil
}
