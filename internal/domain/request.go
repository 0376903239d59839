package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PaymentRequest carries the two core fields every payment has plus an open
// bag of processor-specific fields. Unknown JSON keys land in Data so a
// processor can pick out what it needs (card_number, cvv, expiry_month, ...).
type PaymentRequest struct {
	Amount   int64
	Currency string
	Data     map[string]any
}

func (r *PaymentRequest) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	raw := make(map[string]any)
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	if v, ok := raw["amount"]; ok {
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("amount must be a number")
		}
		amount, err := n.Int64()
		if err != nil {
			return fmt.Errorf("amount must be an integer: %w", err)
		}
		r.Amount = amount
		delete(raw, "amount")
	}

	if v, ok := raw["currency"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("currency must be a string")
		}
		r.Currency = s
		delete(raw, "currency")
	}

	r.Data = raw
	return nil
}

func (r *PaymentRequest) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		out[k] = v
	}
	out["amount"] = r.Amount
	out["currency"] = r.Currency
	return json.Marshal(out)
}

// Get reads a field from the open bag.
func (r *PaymentRequest) Get(key string) (any, bool) {
	v, ok := r.Data[key]
	return v, ok
}

// Type returns the declared payment type, or UNKNOWN when absent.
func (r *PaymentRequest) Type() string {
	if v, ok := r.Data["type"]; ok {
		return Stringify(v)
	}
	return "UNKNOWN"
}

// Stringify renders a bag value the way it appeared on the wire. Numbers
// decoded as json.Number keep their original text.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
