package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/checkoutpay/payment-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrPaymentNotFound = errors.New("payment not found")

const paymentColumns = `id, amount, currency, status, idempotency_key, payment_details, created_at, updated_at`

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db.Pool
}

// Insert writes a fresh payment row. The unique constraint on
// idempotency_key makes a concurrent duplicate fail here; callers treat that
// as a replay.
func (r *PaymentRepository) Insert(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.executor(tx).Exec(ctx, query,
		payment.ID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		payment.IdempotencyKey,
		payment.Details,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// Update persists the finalized status and details by id.
func (r *PaymentRepository) Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, payment_details = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.executor(tx).Exec(ctx, query,
		string(payment.Status),
		payment.Details,
		payment.UpdatedAt,
		payment.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

// FindByID retrieves a payment without locking.
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	row := r.db.Pool.QueryRow(ctx, query, id)
	return scanPayment(row)
}

// FindByIdempotencyKey is the non-locking pre-insert read.
func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	row := r.executor(tx).QueryRow(ctx, query, key)
	return scanPayment(row)
}

// FindAndLockByIdempotencyKey takes a pessimistic row lock for the replay
// path, so the read waits for any finalizing writer on the same key.
func (r *PaymentRepository) FindAndLockByIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1 FOR UPDATE`

	row := tx.QueryRow(ctx, query, key)
	return scanPayment(row)
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var status string

	err := row.Scan(
		&p.ID,
		&p.Amount,
		&p.Currency,
		&status,
		&p.IdempotencyKey,
		&p.Details,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
