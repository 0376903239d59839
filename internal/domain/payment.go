package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	StatusPending               PaymentStatus = "PENDING"
	StatusAuthorized            PaymentStatus = "AUTHORIZED"
	StatusDeclined              PaymentStatus = "DECLINED"
	StatusPendingReconciliation PaymentStatus = "PENDING_RECONCILIATION"
)

// Terminal reports whether a status is final. Payments move from PENDING to
// exactly one terminal status and never back.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case StatusAuthorized, StatusDeclined, StatusPendingReconciliation:
		return true
	}
	return false
}

// Payment is the persistent record of a single payment attempt. Details holds
// the processor's flexible bag (masked PAN, expiry, message, ...) and never
// contains the raw PAN or CVV.
type Payment struct {
	ID             uuid.UUID
	Amount         int64
	Currency       string
	Status         PaymentStatus
	IdempotencyKey string
	Details        map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewPayment(idempotencyKey string, amount int64, currency string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:             uuid.New(),
		Amount:         amount,
		Currency:       currency,
		Status:         StatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Finalize moves the payment out of PENDING. Terminal payments are immutable.
func (p *Payment) Finalize(status PaymentStatus, details map[string]any) error {
	if p.Status != StatusPending {
		return NewInvalidTransitionError(p.Status, status)
	}
	if !status.Terminal() {
		return NewInvalidTransitionError(p.Status, status)
	}

	p.Status = status
	p.Details = details
	p.UpdatedAt = time.Now().UTC()
	return nil
}
