package processor

import (
	"context"

	"github.com/checkoutpay/payment-gateway/internal/domain"
)

// Processor handles one payment type end to end: validation, the bank call
// and outcome classification. MapDetailsToResponse is the inverse projection:
// given the details bag persisted for a payment, it copies the merchant-safe
// subset onto a response.
type Processor interface {
	Supports(paymentType string) bool
	Process(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error)
	MapDetailsToResponse(details map[string]any, resp *domain.PaymentResponse)
}

// Registry holds the ordered processor list. Select returns the first
// processor claiming the type.
type Registry struct {
	processors []Processor
}

func NewRegistry(processors ...Processor) *Registry {
	return &Registry{processors: processors}
}

func (r *Registry) Select(paymentType string) (Processor, bool) {
	for _, p := range r.processors {
		if p.Supports(paymentType) {
			return p, true
		}
	}
	return nil, false
}
