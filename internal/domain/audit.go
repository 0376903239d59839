package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditRequestReceived  = "REQUEST_RECEIVED"
	AuditProcessCompleted = "PROCESS_COMPLETED"
)

// PaymentAudit is an append-only log row. PaymentID is nil for the
// REQUEST_RECEIVED entry, which is written before the payment row exists.
// Payload is the already-scrubbed JSON document.
type PaymentAudit struct {
	ID             int64
	PaymentID      *uuid.UUID
	IdempotencyKey string
	Action         string
	Payload        string
	Timestamp      time.Time
}
