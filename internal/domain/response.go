package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// PaymentResponse is the flexible response bag. Processors build the full
// internal view (status, masked PAN, card type, ...); the service projects a
// filtered copy for the merchant. Details are flattened into the JSON object
// next to the core fields.
type PaymentResponse struct {
	PaymentID uuid.UUID
	Status    string
	Message   string
	Details   map[string]any
}

func NewPaymentResponse(status, message string) *PaymentResponse {
	return &PaymentResponse{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// Add puts a field in the open bag. Nil values are dropped so optional
// fields like authorization_code never serialize as null.
func (r *PaymentResponse) Add(key string, value any) {
	if value == nil {
		return
	}
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
}

func (r *PaymentResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Details)+3)
	for k, v := range r.Details {
		out[k] = v
	}
	if r.PaymentID != uuid.Nil {
		out["payment_id"] = r.PaymentID
	}
	if r.Status != "" {
		out["status"] = r.Status
	}
	if r.Message != "" {
		out["message"] = r.Message
	}
	return json.Marshal(out)
}
