package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/checkoutpay/payment-gateway/internal/config"
)

// HTTPClient talks to the bank simulator over plain JSON. The dialer carries
// the connect timeout, the client's Timeout bounds the full exchange
// including reading the body.
type HTTPClient struct {
	url        string
	httpClient *http.Client
}

func NewHTTPClient(cfg config.BankConfig) *HTTPClient {
	return &HTTPClient{
		url: cfg.SimulatorURL,
		httpClient: &http.Client{
			Timeout: cfg.ReadTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
			},
		},
	}
}

func (c *HTTPClient) ProcessPayment(ctx context.Context, req Request) (Response, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &BankError{
			Message:    string(body),
			StatusCode: resp.StatusCode,
		}
	}

	var bankResp Response
	if err := json.NewDecoder(resp.Body).Decode(&bankResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return bankResp, nil
}
