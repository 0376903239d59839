package bank_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/checkoutpay/payment-gateway/internal/config"
	"github.com/checkoutpay/payment-gateway/internal/infrastructure/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBankClient scripts one response per attempt.
type fakeBankClient struct {
	responses []func() (bank.Response, error)
	calls     int
}

func (f *fakeBankClient) ProcessPayment(ctx context.Context, req bank.Request) (bank.Response, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx]()
}

func succeed(resp bank.Response) func() (bank.Response, error) {
	return func() (bank.Response, error) { return resp, nil }
}

func fail(err error) func() (bank.Response, error) {
	return func() (bank.Response, error) { return nil, err }
}

func retryConfig(attempts int) config.RetryConfig {
	return config.RetryConfig{
		BaseDelay:   time.Millisecond,
		MaxAttempts: attempts,
	}
}

func TestRetryClient_SuccessFirstAttempt(t *testing.T) {
	inner := &fakeBankClient{responses: []func() (bank.Response, error){
		succeed(bank.Response{"authorized": true}),
	}}
	client := bank.NewRetryClient(inner, retryConfig(3))

	resp, err := client.ProcessPayment(context.Background(), bank.Request{})

	require.NoError(t, err)
	authorized, _ := resp.Authorized()
	assert.True(t, authorized)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryClient_RetriesOn5xxThenSucceeds(t *testing.T) {
	inner := &fakeBankClient{responses: []func() (bank.Response, error){
		fail(&bank.BankError{Message: "boom", StatusCode: 503}),
		fail(&bank.BankError{Message: "boom", StatusCode: 500}),
		succeed(bank.Response{"authorized": true}),
	}}
	client := bank.NewRetryClient(inner, retryConfig(3))

	resp, err := client.ProcessPayment(context.Background(), bank.Request{})

	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	authorized, _ := resp.Authorized()
	assert.True(t, authorized)
}

func TestRetryClient_ExhaustsAttempts(t *testing.T) {
	inner := &fakeBankClient{responses: []func() (bank.Response, error){
		fail(&bank.BankError{Message: "boom", StatusCode: 502}),
	}}
	client := bank.NewRetryClient(inner, retryConfig(3))

	_, err := client.ProcessPayment(context.Background(), bank.Request{})

	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Contains(t, err.Error(), "maximum retries exceeded")
}

func TestRetryClient_NoRetryOn4xx(t *testing.T) {
	inner := &fakeBankClient{responses: []func() (bank.Response, error){
		fail(&bank.BankError{Message: "rejected", StatusCode: 400}),
	}}
	client := bank.NewRetryClient(inner, retryConfig(3))

	_, err := client.ProcessPayment(context.Background(), bank.Request{})

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryClient_RetriesTransportErrors(t *testing.T) {
	inner := &fakeBankClient{responses: []func() (bank.Response, error){
		fail(errors.New("connection refused")),
		succeed(bank.Response{"authorized": false}),
	}}
	client := bank.NewRetryClient(inner, retryConfig(3))

	_, err := client.ProcessPayment(context.Background(), bank.Request{})

	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryClient_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &fakeBankClient{responses: []func() (bank.Response, error){
		succeed(bank.Response{"authorized": true}),
	}}
	client := bank.NewRetryClient(inner, retryConfig(3))

	_, err := client.ProcessPayment(ctx, bank.Request{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inner.calls)
}
