package bank

import (
	"context"
	"log/slog"

	"github.com/checkoutpay/payment-gateway/internal/config"
	"github.com/sony/gobreaker"
)

// ResilientClient is the outermost bank wrapper: a circuit breaker around the
// inner (already retrying) client, with an indeterminate fallback. It never
// returns an error to the caller; when the bank's answer is unknown the
// synthesized response carries indeterminate=true and the cause.
type ResilientClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewResilientClient(inner Client, cfg config.BreakerConfig, logger *slog.Logger) *ResilientClient {
	settings := gobreaker.Settings{
		Name:        "bank-simulator",
		MaxRequests: 1,
		Interval:    cfg.Window,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("bank circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &ResilientClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (c *ResilientClient) ProcessPayment(ctx context.Context, req Request) (Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.ProcessPayment(ctx, req)
	})
	if err != nil {
		c.logger.Error("bank call failed, returning indeterminate fallback",
			"error", err,
			"breaker_state", c.breaker.State().String(),
		)
		return Fallback(err), nil
	}

	return result.(Response), nil
}
