package ports

import (
	"context"
	"time"

	"github.com/farstore/checkout-core/internal/domain"
)

// Payment lifecycle statuses reported by the oracle.
const (
	OracleStatusCompleted = "completed"
	OracleStatusPending   = "pending"
	OracleStatusFailed    = "failed"
)

// PaymentStatus is the oracle's report for one transaction.
type PaymentStatus struct {
	Status          string
	TransactionHash string
	CompletedAt     *time.Time
}

// PaymentOracle reports blockchain transaction state. A returned error is
// terminal for the current confirmation call; the caller retries later.
type PaymentOracle interface {
	GetStatus(ctx context.Context, transactionID string, testnet bool) (PaymentStatus, error)
}

// NotificationSender dispatches templated order emails. Both sends are
// fire-and-observe from the orchestrator's perspective: failures are logged,
// never propagated.
type NotificationSender interface {
	SendAdmin(ctx context.Context, order domain.Order, paymentHash string) error
	SendCustomer(ctx context.Context, order domain.Order, paymentHash string) error
}

// EventPublisher delivers outbox payloads to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, partitionKey string, payload []byte) error
}
