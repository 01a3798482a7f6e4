package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farstore/checkout-core/internal/ports"
)

func TestGetStatus_Completed(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"COMPLETED","transactionHash":"0xabc123","completedAt":"2026-03-10T12:00:00Z"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	status, err := client.GetStatus(context.Background(), "0xtx1", false)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if gotPath != "/transactions/0xtx1" {
		t.Fatalf("path = %q", gotPath)
	}
	if status.Status != ports.OracleStatusCompleted {
		t.Fatalf("status = %q, want lowercase completed", status.Status)
	}
	if status.TransactionHash != "0xabc123" {
		t.Fatalf("hash = %q", status.TransactionHash)
	}
	if status.CompletedAt == nil || !status.CompletedAt.Equal(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("completedAt = %v", status.CompletedAt)
	}
}

func TestGetStatus_TestnetRouting(t *testing.T) {
	mainnetHits := 0
	mainnet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mainnetHits++
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	}))
	defer mainnet.Close()
	testnetHits := 0
	testnet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		testnetHits++
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	}))
	defer testnet.Close()

	client := NewClient(mainnet.URL, testnet.URL, time.Second)
	if _, err := client.GetStatus(context.Background(), "0xtx1", true); err != nil {
		t.Fatalf("testnet lookup: %v", err)
	}
	if testnetHits != 1 || mainnetHits != 0 {
		t.Fatalf("hits mainnet=%d testnet=%d, want testnet only", mainnetHits, testnetHits)
	}
}

func TestGetStatus_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	if _, err := client.GetStatus(context.Background(), "0xtx1", false); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestGetStatus_InvalidCompletedAtIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"completed","completedAt":"not-a-time"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	status, err := client.GetStatus(context.Background(), "0xtx1", false)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.CompletedAt != nil {
		t.Fatalf("completedAt = %v, want nil for a garbled timestamp", status.CompletedAt)
	}
}
