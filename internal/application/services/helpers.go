package services

import (
	"context"
	"encoding/json"

	"github.com/checkoutpay/payment-gateway/internal/domain"
	"github.com/google/uuid"
)

// saveAuditLog appends an audit row outside the payment transaction. Audit
// failures are logged and swallowed: a merchant-visible error after a
// successful bank authorization would be worse than a missing audit row.
func (s *PaymentService) saveAuditLog(ctx context.Context, paymentID *uuid.UUID, idempotencyKey, action string, payload any) {
	scrubbed, err := scrubAndSerialize(payload)
	if err != nil {
		s.logger.Error("critical audit failure: could not serialize payload",
			"idempotency_key", idempotencyKey,
			"action", action,
			"error", err,
		)
		return
	}

	audit := &domain.PaymentAudit{
		PaymentID:      paymentID,
		IdempotencyKey: idempotencyKey,
		Action:         action,
		Payload:        scrubbed,
	}

	if err := s.auditRepo.Insert(ctx, nil, audit); err != nil {
		s.logger.Error("critical audit failure",
			"idempotency_key", idempotencyKey,
			"action", action,
			"error", err,
		)
	}
}

// scrubAndSerialize masks the PAN and CVV of a payment request before it can
// reach storage. Processor responses serialize as-is: they only ever carry
// the masked card number.
func scrubAndSerialize(payload any) (string, error) {
	if req, ok := payload.(*domain.PaymentRequest); ok {
		dataCopy := make(map[string]any, len(req.Data))
		for k, v := range req.Data {
			dataCopy[k] = v
		}
		if _, ok := dataCopy["card_number"]; ok {
			dataCopy["card_number"] = "****"
		}
		if _, ok := dataCopy["cvv"]; ok {
			dataCopy["cvv"] = "***"
		}

		doc := map[string]any{
			"amount":   req.Amount,
			"currency": req.Currency,
			"data":     dataCopy,
		}
		b, err := json.Marshal(doc)
		return string(b), err
	}

	b, err := json.Marshal(payload)
	return string(b), err
}
