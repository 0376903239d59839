package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/checkoutpay/payment-gateway/internal/domain"
	"github.com/checkoutpay/payment-gateway/internal/interfaces/rest"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
)

// PaymentService is the application-layer port the REST surface depends on.
type PaymentService interface {
	HandlePayment(ctx context.Context, idempotencyKey string, req *domain.PaymentRequest) (*domain.PaymentResponse, error)
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*domain.PaymentResponse, error)
}

type PaymentHandler struct {
	service  PaymentService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPaymentHandler(service PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/payments/process", h.HandleProcess)
	mux.HandleFunc("GET /v1/payments/{id}", h.HandleGetPayment)
}

// paymentCore mirrors the required schema fields of the process body; the
// rest of the payload is an open bag validated by the selected processor.
type paymentCore struct {
	Amount   int64  `validate:"required,gt=0"`
	Currency string `validate:"required,len=3"`
}

func (h *PaymentHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := r.Header.Get("X-Idempotency-Key")

	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteValidationError(w, h.logger, map[string]string{
			"body": "Malformed JSON body",
		})
		return
	}

	errs := make(map[string]string)
	if idempotencyKey == "" {
		errs["X-Idempotency-Key"] = "Idempotency key header is required"
	}
	if err := h.validate.Struct(paymentCore{Amount: req.Amount, Currency: req.Currency}); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.Field() {
				case "Amount":
					errs["amount"] = "Amount must be greater than zero"
				case "Currency":
					errs["currency"] = "Currency must be a 3-letter ISO code"
				}
			}
		}
	}
	if len(errs) > 0 {
		rest.WriteValidationError(w, h.logger, errs)
		return
	}

	h.logger.Info("processing payment request",
		"type", req.Type(),
		"amount", req.Amount,
		"currency", req.Currency,
		"idempotency_key", idempotencyKey,
	)

	// A merchant disconnect must not abandon an in-flight bank call or leave
	// the payment half-finalized; the pipeline runs to completion.
	ctx := context.WithoutCancel(r.Context())

	resp, err := h.service.HandlePayment(ctx, idempotencyKey, &req)
	if err != nil {
		rest.WriteError(w, h.logger, err)
		return
	}

	rest.RespondJSON(w, http.StatusCreated, resp)
}

func (h *PaymentHandler) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, h.logger, domain.NewInvalidArgumentError("Invalid payment id"))
		return
	}

	resp, err := h.service.GetPaymentByID(r.Context(), id)
	if err != nil {
		rest.WriteError(w, h.logger, err)
		return
	}

	rest.RespondJSON(w, http.StatusOK, resp)
}
