package processor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/checkoutpay/payment-gateway/internal/domain"
	"github.com/checkoutpay/payment-gateway/internal/infrastructure/bank"
)

var (
	supportedCurrencies = []string{"USD", "EUR", "GBP"}
	cardNumberPattern   = regexp.MustCompile(`^[0-9]{14,19}$`)
	cvvPattern          = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// CardProcessor validates card fields, calls the bank and classifies the
// outcome. The raw PAN and CVV only ever travel to the bank; everything
// persisted or returned carries the masked form.
type CardProcessor struct {
	bankClient bank.Client
	logger     *slog.Logger
	now        func() time.Time
}

func NewCardProcessor(bankClient bank.Client, logger *slog.Logger) *CardProcessor {
	return &CardProcessor{
		bankClient: bankClient,
		logger:     logger,
		now:        time.Now,
	}
}

func (p *CardProcessor) Supports(paymentType string) bool {
	return strings.EqualFold(paymentType, "CARD")
}

func (p *CardProcessor) Process(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	p.logger.Info("processing card payment",
		"amount", req.Amount,
		"currency", req.Currency,
	)

	cardNumber, cvv, expiryMonth, expiryYear, err := p.validate(req)
	if err != nil {
		return nil, err
	}

	bankReq := bank.Request{
		"amount":      req.Amount,
		"currency":    req.Currency,
		"card_number": cardNumber,
		"expiry_date": fmt.Sprintf("%02d/%d", expiryMonth, expiryYear),
		"cvv":         cvv,
	}

	bankResp, err := p.bankClient.ProcessPayment(ctx, bankReq)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	status, message := classify(bankResp)

	resp := domain.NewPaymentResponse(string(status), message)
	resp.Add("type", "CARD")
	resp.Add("masked_card_number", maskCardNumber(cardNumber))
	resp.Add("card_type", detectCardType(cardNumber))
	resp.Add("expiry_month", expiryMonth)
	resp.Add("expiry_year", expiryYear)
	resp.Add("amount", req.Amount)
	resp.Add("currency", req.Currency)
	if code, ok := bankResp.AuthorizationCode(); ok {
		resp.Add("authorization_code", code)
	}

	return resp, nil
}

// classify turns the bank's answer into an internal status. An indeterminate
// flag or a missing authorized field both land in PENDING_RECONCILIATION; a
// present-but-false authorized is a genuine decline.
func classify(resp bank.Response) (domain.PaymentStatus, string) {
	if resp.Indeterminate() {
		return domain.StatusPendingReconciliation, "Bank timeout"
	}

	authorized, present := resp.Authorized()
	if !present {
		return domain.StatusPendingReconciliation, "Malformed bank response"
	}
	if authorized {
		return domain.StatusAuthorized, "Success"
	}
	return domain.StatusDeclined, "Declined"
}

func (p *CardProcessor) validate(req *domain.PaymentRequest) (cardNumber, cvv string, expiryMonth, expiryYear int, err error) {
	currencyOK := false
	for _, c := range supportedCurrencies {
		if req.Currency == c {
			currencyOK = true
			break
		}
	}
	if !currencyOK {
		return "", "", 0, 0, domain.NewInvalidArgumentError(fmt.Sprintf(
			"Unsupported currency: %s. We only support %s.",
			req.Currency, strings.Join(supportedCurrencies, ", "),
		))
	}

	cardNumberVal, ok := req.Get("card_number")
	if !ok || cardNumberVal == nil {
		return "", "", 0, 0, domain.NewInvalidArgumentError("Card number is required.")
	}
	cardNumber = domain.Stringify(cardNumberVal)
	if !cardNumberPattern.MatchString(cardNumber) {
		return "", "", 0, 0, domain.NewInvalidArgumentError("Card number must be 14-19 numeric characters long.")
	}

	cvvVal, ok := req.Get("cvv")
	if !ok || cvvVal == nil {
		return "", "", 0, 0, domain.NewInvalidArgumentError("CVV is required.")
	}
	cvv = domain.Stringify(cvvVal)
	if !cvvPattern.MatchString(cvv) {
		return "", "", 0, 0, domain.NewInvalidArgumentError("CVV must be 3-4 numeric characters long.")
	}

	monthVal, monthOK := req.Get("expiry_month")
	yearVal, yearOK := req.Get("expiry_year")
	if !monthOK || !yearOK || monthVal == nil || yearVal == nil {
		return "", "", 0, 0, domain.NewInvalidArgumentError("Expiry month and year are required.")
	}

	expiryMonth, err = strconv.Atoi(domain.Stringify(monthVal))
	if err == nil {
		expiryYear, err = strconv.Atoi(domain.Stringify(yearVal))
	}
	if err != nil {
		return "", "", 0, 0, domain.NewInvalidArgumentError("Expiry month and year must be numbers.")
	}

	if expiryMonth < 1 || expiryMonth > 12 {
		return "", "", 0, 0, domain.NewInvalidArgumentError("Expiry month must be between 1 and 12.")
	}

	now := p.now()
	if expiryYear < now.Year() || (expiryYear == now.Year() && expiryMonth < int(now.Month())) {
		return "", "", 0, 0, domain.NewInvalidArgumentError("Card expiry date must be in the future.")
	}

	return cardNumber, cvv, expiryMonth, expiryYear, nil
}

func (p *CardProcessor) MapDetailsToResponse(details map[string]any, resp *domain.PaymentResponse) {
	if details == nil {
		return
	}

	masked := domain.Stringify(details["masked_card_number"])
	if len(masked) >= 4 {
		resp.Add("last_four_card_digits", masked[len(masked)-4:])
	}

	resp.Add("expiry_month", details["expiry_month"])
	resp.Add("expiry_year", details["expiry_year"])
}

func detectCardType(pan string) string {
	switch {
	case strings.HasPrefix(pan, "4"):
		return "VISA"
	case strings.HasPrefix(pan, "5"):
		return "MASTERCARD"
	default:
		return "UNKNOWN"
	}
}

func maskCardNumber(pan string) string {
	if len(pan) < 4 {
		return "****"
	}
	return "**** **** **** " + pan[len(pan)-4:]
}
