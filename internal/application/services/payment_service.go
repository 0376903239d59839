package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/checkoutpay/payment-gateway/internal/domain"
	"github.com/checkoutpay/payment-gateway/internal/infrastructure/persistence/postgres"
	"github.com/checkoutpay/payment-gateway/internal/processor"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// maxTxAttempts bounds retries of the payment transaction on SERIALIZABLE
// conflicts. Conflicts on distinct keys are rare; same-key races resolve via
// the unique constraint, not this loop.
const maxTxAttempts = 3

// PaymentService orchestrates the payment pipeline: audit the request, detect
// replays, create the PENDING row, dispatch to a processor, finalize and
// project the merchant view. Every write path runs under SERIALIZABLE
// isolation.
type PaymentService struct {
	db          *postgres.DB
	paymentRepo *postgres.PaymentRepository
	auditRepo   *postgres.AuditRepository
	registry    *processor.Registry
	logger      *slog.Logger
}

func NewPaymentService(
	db *postgres.DB,
	paymentRepo *postgres.PaymentRepository,
	auditRepo *postgres.AuditRepository,
	registry *processor.Registry,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		db:          db,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		registry:    registry,
		logger:      logger,
	}
}

// HandlePayment processes one payment request under the idempotency contract:
// at most one payment per key, and every caller with the same key observes
// the same payment_id and final status.
func (s *PaymentService) HandlePayment(ctx context.Context, idempotencyKey string, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	s.saveAuditLog(ctx, nil, idempotencyKey, domain.AuditRequestReceived, req)

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		resp, err := s.handlePaymentTx(ctx, idempotencyKey, req)
		if err != nil {
			if postgres.IsSerializationFailure(err) {
				s.logger.Warn("serialization conflict, retrying payment transaction",
					"idempotency_key", idempotencyKey,
					"attempt", attempt+1,
				)
				continue
			}
			if postgres.IsUniqueViolation(err) {
				// Lost the insert race: another request owns this key and has
				// committed. Replay its outcome.
				s.logger.Info("idempotency conflict on insert, replaying",
					"idempotency_key", idempotencyKey,
				)
				return s.replay(ctx, idempotencyKey)
			}
			return nil, err
		}
		return resp, nil
	}

	return nil, domain.NewInternalError(fmt.Errorf("transaction retries exhausted for idempotency key %s", idempotencyKey))
}

func (s *PaymentService) handlePaymentTx(ctx context.Context, idempotencyKey string, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	tx, err := s.db.BeginSerializable(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	defer tx.Rollback(ctx)

	existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, tx, idempotencyKey)
	if err == nil {
		s.logger.Info("idempotency replay",
			"idempotency_key", idempotencyKey,
			"payment_id", existing.ID,
		)
		resp, err := s.findAndMap(ctx, tx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return resp, nil
	}
	if !errors.Is(err, postgres.ErrPaymentNotFound) {
		return nil, domain.NewInternalError(err)
	}

	payment := domain.NewPayment(idempotencyKey, req.Amount, req.Currency)
	if err := s.paymentRepo.Insert(ctx, tx, payment); err != nil {
		// May be a unique violation from a concurrent inserter; the caller
		// inspects and replays.
		return nil, err
	}

	proc, ok := s.registry.Select(req.Type())
	if !ok {
		return nil, domain.NewInvalidArgumentError("Unsupported payment type: " + req.Type())
	}

	procResp, err := proc.Process(ctx, req)
	if err != nil {
		return nil, err
	}

	// The message lives in the details bag so it survives persistence and
	// resurfaces on replays.
	if procResp.Message != "" {
		procResp.Add("message", procResp.Message)
	}

	if err := payment.Finalize(domain.PaymentStatus(procResp.Status), procResp.Details); err != nil {
		return nil, domain.NewInternalError(err)
	}
	if err := s.paymentRepo.Update(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.saveAuditLog(ctx, &payment.ID, idempotencyKey, domain.AuditProcessCompleted, procResp)

	return s.mapToResponse(payment), nil
}

// replay re-reads a committed payment in a fresh SERIALIZABLE transaction.
func (s *PaymentService) replay(ctx context.Context, idempotencyKey string) (*domain.PaymentResponse, error) {
	tx, err := s.db.BeginSerializable(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	defer tx.Rollback(ctx)

	resp, err := s.findAndMap(ctx, tx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}

// findAndMap takes the pessimistic row lock and projects the stored payment.
// The lock makes the read wait out any finalizing writer on the same row.
func (s *PaymentService) findAndMap(ctx context.Context, tx pgx.Tx, idempotencyKey string) (*domain.PaymentResponse, error) {
	payment, err := s.paymentRepo.FindAndLockByIdempotencyKey(ctx, tx, idempotencyKey)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return nil, domain.NewConsistencyError("consistency error during idempotent replay for key: " + idempotencyKey)
		}
		return nil, domain.NewInternalError(err)
	}
	return s.mapToResponse(payment), nil
}

// GetPaymentByID reads a payment without locking and projects it.
func (s *PaymentService) GetPaymentByID(ctx context.Context, id uuid.UUID) (*domain.PaymentResponse, error) {
	s.logger.Info("fetching payment record", "payment_id", id)

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("Payment not found for ID: %s", id))
		}
		return nil, domain.NewInternalError(err)
	}

	return s.mapToResponse(payment), nil
}

// mapToResponse builds the merchant-visible projection: core fields plus the
// processor's filtered subset of the details bag. Fields not added here are
// not leaked.
func (s *PaymentService) mapToResponse(payment *domain.Payment) *domain.PaymentResponse {
	resp := &domain.PaymentResponse{
		PaymentID: payment.ID,
		Status:    string(payment.Status),
		Details:   make(map[string]any),
	}
	resp.Add("amount", payment.Amount)
	resp.Add("currency", payment.Currency)

	if payment.Details != nil {
		paymentType := "UNKNOWN"
		if v, ok := payment.Details["type"]; ok {
			paymentType = domain.Stringify(v)
		}

		if proc, ok := s.registry.Select(paymentType); ok {
			proc.MapDetailsToResponse(payment.Details, resp)
		}

		if msg, ok := payment.Details["message"]; ok {
			resp.Message = domain.Stringify(msg)
		}
	}

	return resp
}
