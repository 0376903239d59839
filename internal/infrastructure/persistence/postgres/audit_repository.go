package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/checkoutpay/payment-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AuditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db.Pool
}

// Insert appends an audit row. Audit rows are never updated or deleted.
func (r *AuditRepository) Insert(ctx context.Context, tx pgx.Tx, audit *domain.PaymentAudit) error {
	query := `
		INSERT INTO payment_audit_logs (payment_id, idempotency_key, action, payload, logged_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if audit.Timestamp.IsZero() {
		audit.Timestamp = time.Now().UTC()
	}

	_, err := r.executor(tx).Exec(ctx, query,
		audit.PaymentID,
		audit.IdempotencyKey,
		audit.Action,
		audit.Payload,
		audit.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert payment audit: %w", err)
	}

	return nil
}

// FindByIdempotencyKey returns the audit trail for a key, oldest first.
// Used by tests and operators; the service itself only appends.
func (r *AuditRepository) FindByIdempotencyKey(ctx context.Context, key string) ([]*domain.PaymentAudit, error) {
	query := `
		SELECT id, payment_id, idempotency_key, action, payload, logged_at
		FROM payment_audit_logs
		WHERE idempotency_key = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("query payment audits: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentAudit, error) {
		var a domain.PaymentAudit
		var paymentID *uuid.UUID
		err := row.Scan(&a.ID, &paymentID, &a.IdempotencyKey, &a.Action, &a.Payload, &a.Timestamp)
		a.PaymentID = paymentID
		return &a, err
	})
}
