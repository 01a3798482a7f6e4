package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farstore/checkout-core/internal/domain"
)

func testOrder() domain.Order {
	return domain.Order{
		Reference:     "BS-1001",
		BuyerFid:      "999",
		BuyerUsername: "alice",
		LineItems: []domain.LineItem{
			{ProductID: "55", Title: "Wireless Mouse", UnitPrice: "10.00", Quantity: 2, SKU: "WM-55"},
		},
		TotalAmount: decimal.RequireFromString("20.00"),
		Currency:    "USDC",
	}
}

func TestSendAdmin(t *testing.T) {
	var got sendEmailRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "re_test_key", "orders@farstore.dev", "admin@farstore.dev", time.Second)
	if err := client.SendAdmin(context.Background(), testOrder(), "0xabc123"); err != nil {
		t.Fatalf("SendAdmin: %v", err)
	}
	if auth != "Bearer re_test_key" {
		t.Fatalf("auth header = %q", auth)
	}
	if len(got.To) != 1 || got.To[0] != "admin@farstore.dev" {
		t.Fatalf("to = %v", got.To)
	}
	if !strings.Contains(got.Subject, "BS-1001") {
		t.Fatalf("subject = %q", got.Subject)
	}
	if !strings.Contains(got.Text, "0xabc123") || !strings.Contains(got.Text, "Wireless Mouse") {
		t.Fatalf("body missing payment hash or items:\n%s", got.Text)
	}
}

func TestSendAdmin_RequiresAdminEmail(t *testing.T) {
	client := NewClient("http://unused", "key", "orders@farstore.dev", "", time.Second)
	if err := client.SendAdmin(context.Background(), testOrder(), "0xabc"); err == nil {
		t.Fatal("expected error without a configured admin address")
	}
}

func TestSendCustomer_UsesRelayAddress(t *testing.T) {
	var got sendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "orders@farstore.dev", "admin@farstore.dev", time.Second)
	if err := client.SendCustomer(context.Background(), testOrder(), "0xabc"); err != nil {
		t.Fatalf("SendCustomer: %v", err)
	}
	if len(got.To) != 1 || got.To[0] != "order+BS-1001@relay.farstore.dev" {
		t.Fatalf("to = %v, want the reference relay address", got.To)
	}
}

func TestSend_APIErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "orders@farstore.dev", "admin@farstore.dev", time.Second)
	if err := client.SendAdmin(context.Background(), testOrder(), "0xabc"); err == nil {
		t.Fatal("expected error on 422 response")
	}
}
