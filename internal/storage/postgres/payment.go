package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mivanenko/shopflow/internal/domain/payment"
)

const (
	lockPaymentSQL = `SELECT id, order_id, method, amount, pay_status, paid_at
	FROM payments WHERE id = $1 FOR UPDATE`

	markPaymentPaidSQL = `UPDATE payments SET pay_status = 'Paid', paid_at = $2 WHERE id = $1`

	insertDeliverySQL = `INSERT INTO deliveries (id, payment_id, status) VALUES ($1, $2, 'Pending')`

	listPaymentsByUserSQL = `SELECT p.id, p.order_id, p.method, p.amount, p.pay_status, p.paid_at
	FROM payments p
	JOIN orders o ON o.id = p.order_id
	WHERE o.user_id = $1
	ORDER BY p.paid_at DESC NULLS FIRST, p.id`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Confirm transitions a pending payment to Paid and creates its delivery
// record in the same transaction. The payment row is locked first so a
// concurrent confirmation of the same payment serializes and the loser
// sees Paid.
func (r *PaymentRepository) Confirm(ctx context.Context, paymentID string, paidAt time.Time) (*payment.Payment, error) {
	var p payment.Payment
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, lockPaymentSQL, paymentID).
			Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status, &p.PaidAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payment.ErrNotFound
			}
			return fmt.Errorf("locking payment %q: %w", paymentID, err)
		}
		if p.Status == payment.StatusPaid {
			return payment.ErrAlreadyPaid
		}

		if _, err := tx.Exec(ctx, markPaymentPaidSQL, paymentID, paidAt); err != nil {
			return fmt.Errorf("marking payment paid: %w", err)
		}
		if _, err := tx.Exec(ctx, insertDeliverySQL, uuid.New().String(), paymentID); err != nil {
			return fmt.Errorf("creating delivery: %w", err)
		}

		p.Status = payment.StatusPaid
		p.PaidAt = &paidAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns the user's payments, most recent first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]payment.Payment, error) {
	rows, err := r.pool.Query(ctx, listPaymentsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (payment.Payment, error) {
		var p payment.Payment
		err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status, &p.PaidAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning payments: %w", err)
	}
	return payments, nil
}
