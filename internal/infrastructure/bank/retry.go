package bank

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/checkoutpay/payment-gateway/internal/config"
)

// RetryClient wraps a Client with bounded retries on transport failures and
// 5xx responses. It returns an error once attempts are exhausted; turning
// that error into the indeterminate fallback is the ResilientClient's job.
type RetryClient struct {
	inner       Client
	baseDelay   time.Duration
	maxAttempts int
}

func NewRetryClient(inner Client, cfg config.RetryConfig) *RetryClient {
	return &RetryClient{
		inner:       inner,
		baseDelay:   cfg.BaseDelay,
		maxAttempts: cfg.MaxAttempts,
	}
}

func (r *RetryClient) ProcessPayment(ctx context.Context, req Request) (Response, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := r.inner.ProcessPayment(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxAttempts-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	var bankErr *BankError
	if errors.As(err, &bankErr) {
		return bankErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// Transport failures and deadline hits are worth another try.
	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(100)) * time.Millisecond

	return base + jitter
}
