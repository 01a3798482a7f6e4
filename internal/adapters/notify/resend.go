// Package notify sends order emails through a Resend-compatible API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/farstore/checkout-core/internal/domain"
)

type Client struct {
	baseURL    string
	apiKey     string
	from       string
	adminEmail string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, from, adminEmail string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		from:       from,
		adminEmail: adminEmail,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// sendEmailRequest matches the Resend send email API request body.
type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (c *Client) SendAdmin(ctx context.Context, order domain.Order, paymentHash string) error {
	if c.adminEmail == "" {
		return fmt.Errorf("admin email not configured")
	}
	subject := fmt.Sprintf("New paid order %s", order.Reference)
	return c.send(ctx, sendEmailRequest{
		From:    c.from,
		To:      []string{c.adminEmail},
		Subject: subject,
		Text:    adminBody(order, paymentHash),
	})
}

func (c *Client) SendCustomer(ctx context.Context, order domain.Order, paymentHash string) error {
	// Customer contact lives in the encrypted blob; the mail relay holds the
	// decryption path and resolves the recipient from the order reference.
	subject := fmt.Sprintf("Order %s confirmed", order.Reference)
	return c.send(ctx, sendEmailRequest{
		From:    c.from,
		To:      []string{"order+" + order.Reference + "@relay.farstore.dev"},
		Subject: subject,
		Text:    customerBody(order, paymentHash),
	})
}

func (c *Client) send(ctx context.Context, email sendEmailRequest) error {
	raw, err := json.Marshal(email)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email api responded %d", resp.StatusCode)
	}
	return nil
}

func adminBody(order domain.Order, paymentHash string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s paid.\n\n", order.Reference)
	fmt.Fprintf(&b, "Total: %s %s\n", order.TotalAmount.StringFixed(2), order.Currency)
	fmt.Fprintf(&b, "Payment hash: %s\n", paymentHash)
	if order.BuyerUsername != "" {
		fmt.Fprintf(&b, "Buyer: @%s (fid %s)\n", order.BuyerUsername, order.BuyerFid)
	}
	b.WriteString("\nItems:\n")
	for _, item := range order.LineItems {
		fmt.Fprintf(&b, "  %dx %s (%s) @ %s\n", item.Quantity, item.Title, item.SKU, item.UnitPrice)
	}
	return b.String()
}

func customerBody(order domain.Order, paymentHash string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order %s!\n\n", order.Reference)
	fmt.Fprintf(&b, "Payment of %s %s confirmed on-chain (%s).\n", order.TotalAmount.StringFixed(2), order.Currency, paymentHash)
	b.WriteString("We'll let you know when it ships.\n")
	return b.String()
}
