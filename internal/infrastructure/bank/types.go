package bank

import "context"

// Request is the open JSON document sent to the acquiring bank. The card
// processor fills in amount, currency, card_number, expiry_date and cvv.
type Request map[string]any

// Response is the open JSON document the bank returns. Only a handful of
// fields are consumed; everything else rides along untouched.
type Response map[string]any

// Client is the outbound port to the acquiring bank.
type Client interface {
	ProcessPayment(ctx context.Context, req Request) (Response, error)
}

// Authorized returns the bank's verdict and whether the field was present at
// all. A missing field means the response is malformed, which callers must
// treat as indeterminate rather than declined.
func (r Response) Authorized() (value bool, present bool) {
	v, ok := r["authorized"]
	if !ok {
		return false, false
	}
	b, _ := v.(bool)
	return b, true
}

// Indeterminate reports whether the outcome is unknown (timeout, 5xx or an
// open circuit). Defaults to false when absent.
func (r Response) Indeterminate() bool {
	b, _ := r["indeterminate"].(bool)
	return b
}

func (r Response) AuthorizationCode() (string, bool) {
	s, ok := r["authorization_code"].(string)
	return s, ok
}

func (r Response) ErrorMessage() (string, bool) {
	s, ok := r["error_message"].(string)
	return s, ok
}

// Fallback synthesizes the indeterminate response used when the bank's true
// answer is unknown. Telling the merchant "declined" here would risk a
// double charge on retry.
func Fallback(cause error) Response {
	return Response{
		"authorized":    false,
		"indeterminate": true,
		"error_message": cause.Error(),
	}
}
