// Package payment implements the HTTP client for the payment status oracle.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/farstore/checkout-core/internal/ports"
)

// Client queries the gateway's transaction status endpoint. The testnet flag
// selects which chain environment the lookup runs against.
type Client struct {
	mainnetBaseURL string
	testnetBaseURL string
	httpClient     *http.Client
}

func NewClient(mainnetBaseURL, testnetBaseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		mainnetBaseURL: strings.TrimRight(mainnetBaseURL, "/"),
		testnetBaseURL: strings.TrimRight(testnetBaseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
	}
}

type statusResponse struct {
	Status          string `json:"status"`
	TransactionHash string `json:"transactionHash,omitempty"`
	CompletedAt     string `json:"completedAt,omitempty"`
}

func (c *Client) GetStatus(ctx context.Context, transactionID string, testnet bool) (ports.PaymentStatus, error) {
	base := c.mainnetBaseURL
	if testnet && c.testnetBaseURL != "" {
		base = c.testnetBaseURL
	}
	endpoint := base + "/transactions/" + url.PathEscape(transactionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.PaymentStatus{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.PaymentStatus{}, fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.PaymentStatus{}, fmt.Errorf("oracle responded %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.PaymentStatus{}, fmt.Errorf("decode oracle response: %w", err)
	}

	out := ports.PaymentStatus{
		Status:          strings.ToLower(strings.TrimSpace(body.Status)),
		TransactionHash: strings.TrimSpace(body.TransactionHash),
	}
	if body.CompletedAt != "" {
		if ts, err := time.Parse(time.RFC3339, body.CompletedAt); err == nil {
			out.CompletedAt = &ts
		}
	}
	return out, nil
}
