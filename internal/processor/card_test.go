package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/checkoutpay/payment-gateway/internal/domain"
	"github.com/checkoutpay/payment-gateway/internal/infrastructure/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBankClient struct {
	resp    bank.Response
	err     error
	calls   int
	lastReq bank.Request
}

func (s *stubBankClient) ProcessPayment(ctx context.Context, req bank.Request) (bank.Response, error) {
	s.calls++
	s.lastReq = req
	return s.resp, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fixedNow pins expiry validation to June 2025.
func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func newCardProcessor(client bank.Client) *CardProcessor {
	p := NewCardProcessor(client, testLogger())
	p.now = fixedNow
	return p
}

func cardRequest(overrides map[string]any) *domain.PaymentRequest {
	data := map[string]any{
		"type":         "CARD",
		"card_number":  "4234567890123456",
		"cvv":          "123",
		"expiry_month": 12,
		"expiry_year":  2030,
	}
	req := &domain.PaymentRequest{Amount: 1000, Currency: "USD", Data: data}
	for k, v := range overrides {
		if k == "currency" {
			req.Currency = v.(string)
			continue
		}
		if v == nil {
			delete(data, k)
			continue
		}
		data[k] = v
	}
	return req
}

func TestCardProcessor_Supports(t *testing.T) {
	p := newCardProcessor(&stubBankClient{})

	assert.True(t, p.Supports("CARD"))
	assert.True(t, p.Supports("card"))
	assert.True(t, p.Supports("Card"))
	assert.False(t, p.Supports("PAYPAL"))
	assert.False(t, p.Supports("UNKNOWN"))
}

func TestCardProcessor_Process_Authorized(t *testing.T) {
	client := &stubBankClient{resp: bank.Response{
		"authorized":         true,
		"authorization_code": "4cfc3a33-54e8",
	}}
	p := newCardProcessor(client)

	resp, err := p.Process(context.Background(), cardRequest(nil))
	require.NoError(t, err)

	assert.Equal(t, "AUTHORIZED", resp.Status)
	assert.Equal(t, "Success", resp.Message)
	assert.Equal(t, "CARD", resp.Details["type"])
	assert.Equal(t, "**** **** **** 3456", resp.Details["masked_card_number"])
	assert.Equal(t, "VISA", resp.Details["card_type"])
	assert.Equal(t, 12, resp.Details["expiry_month"])
	assert.Equal(t, 2030, resp.Details["expiry_year"])
	assert.Equal(t, int64(1000), resp.Details["amount"])
	assert.Equal(t, "USD", resp.Details["currency"])
	assert.Equal(t, "4cfc3a33-54e8", resp.Details["authorization_code"])

	// the bank sees the raw PAN and MM/YYYY expiry
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "4234567890123456", client.lastReq["card_number"])
	assert.Equal(t, "12/2030", client.lastReq["expiry_date"])
	assert.Equal(t, "123", client.lastReq["cvv"])
	assert.Equal(t, int64(1000), client.lastReq["amount"])
	assert.Equal(t, "USD", client.lastReq["currency"])
}

func TestCardProcessor_Process_Classification(t *testing.T) {
	tests := []struct {
		name        string
		bankResp    bank.Response
		wantStatus  string
		wantMessage string
	}{
		{"authorized", bank.Response{"authorized": true}, "AUTHORIZED", "Success"},
		{"declined", bank.Response{"authorized": false}, "DECLINED", "Declined"},
		{"empty response is malformed", bank.Response{}, "PENDING_RECONCILIATION", "Malformed bank response"},
		{"indeterminate wins over authorized", bank.Response{"authorized": true, "indeterminate": true}, "PENDING_RECONCILIATION", "Bank timeout"},
		{"fallback", bank.Fallback(context.DeadlineExceeded), "PENDING_RECONCILIATION", "Bank timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newCardProcessor(&stubBankClient{resp: tt.bankResp})

			resp, err := p.Process(context.Background(), cardRequest(nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.NotContains(t, resp.Details, "authorization_code")
		})
	}
}

func TestCardProcessor_Process_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"unsupported currency", map[string]any{"currency": "JPY"}},
		{"missing card number", map[string]any{"card_number": nil}},
		{"card number too short", map[string]any{"card_number": "123"}},
		{"card number with letters", map[string]any{"card_number": "42345678901234ab"}},
		{"missing cvv", map[string]any{"cvv": nil}},
		{"cvv too long", map[string]any{"cvv": "12345"}},
		{"missing expiry month", map[string]any{"expiry_month": nil}},
		{"missing expiry year", map[string]any{"expiry_year": nil}},
		{"non numeric expiry", map[string]any{"expiry_year": "next-year"}},
		{"month out of range", map[string]any{"expiry_month": 13}},
		{"expired year", map[string]any{"expiry_year": 2020}},
		{"expired month this year", map[string]any{"expiry_month": 5, "expiry_year": 2025}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubBankClient{resp: bank.Response{"authorized": true}}
			p := newCardProcessor(client)

			_, err := p.Process(context.Background(), cardRequest(tt.overrides))

			assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidArgument), "got %v", err)
			assert.Zero(t, client.calls, "bank must not be called on validation failure")
		})
	}
}

func TestCardProcessor_Process_AcceptsNumericStringExpiry(t *testing.T) {
	client := &stubBankClient{resp: bank.Response{"authorized": true}}
	p := newCardProcessor(client)

	req := cardRequest(map[string]any{
		"expiry_month": json.Number("9"),
		"expiry_year":  "2031",
	})

	resp, err := p.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "AUTHORIZED", resp.Status)
	assert.Equal(t, "09/2031", client.lastReq["expiry_date"])
}

func TestCardProcessor_Process_CurrentMonthIsValid(t *testing.T) {
	client := &stubBankClient{resp: bank.Response{"authorized": true}}
	p := newCardProcessor(client)

	_, err := p.Process(context.Background(), cardRequest(map[string]any{
		"expiry_month": 6,
		"expiry_year":  2025,
	}))
	require.NoError(t, err)
}

func TestDetectCardType(t *testing.T) {
	assert.Equal(t, "VISA", detectCardType("4234567890123456"))
	assert.Equal(t, "MASTERCARD", detectCardType("5234567890123456"))
	assert.Equal(t, "UNKNOWN", detectCardType("6234567890123456"))
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "**** **** **** 3456", maskCardNumber("4234567890123456"))
	assert.Equal(t, "****", maskCardNumber("123"))
}

func TestCardProcessor_MapDetailsToResponse(t *testing.T) {
	p := newCardProcessor(&stubBankClient{})

	details := map[string]any{
		"type":               "CARD",
		"masked_card_number": "**** **** **** 3456",
		"card_type":          "VISA",
		"expiry_month":       float64(12), // as decoded from jsonb
		"expiry_year":        float64(2030),
		"authorization_code": "4cfc3a33-54e8",
	}

	resp := domain.NewPaymentResponse("AUTHORIZED", "Success")
	p.MapDetailsToResponse(details, resp)

	assert.Equal(t, "3456", resp.Details["last_four_card_digits"])
	assert.Equal(t, float64(12), resp.Details["expiry_month"])
	assert.Equal(t, float64(2030), resp.Details["expiry_year"])

	// the merchant projection deliberately omits the rest
	assert.NotContains(t, resp.Details, "type")
	assert.NotContains(t, resp.Details, "card_type")
	assert.NotContains(t, resp.Details, "masked_card_number")
	assert.NotContains(t, resp.Details, "authorization_code")
}

func TestCardProcessor_MapDetailsToResponse_MissingMask(t *testing.T) {
	p := newCardProcessor(&stubBankClient{})

	resp := domain.NewPaymentResponse("AUTHORIZED", "Success")
	p.MapDetailsToResponse(map[string]any{"expiry_month": 1}, resp)

	assert.NotContains(t, resp.Details, "last_four_card_digits")

	p.MapDetailsToResponse(nil, resp)
}
