package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farstore/checkout-core/internal/domain"
)

// OrderRepository is the durable order store consumed by the confirmation
// workflow. The store's own atomicity is the sole source of exactly-once
// semantics for the confirm transition.
type OrderRepository interface {
	GetByReference(ctx context.Context, reference string) (domain.Order, error)
	// ConfirmPayment transitions the order to payment_status=confirmed and
	// order_status=confirmed, recording the payment hash and completion time.
	// The update is conditional on payment_status <> 'confirmed'; updated=false
	// with a nil error means a concurrent call won the transition.
	ConfirmPayment(ctx context.Context, reference, paymentHash string, completedAt, now time.Time) (updated bool, err error)
}

// ClickConversion is the outcome of a ledger-side conversion attempt.
type ClickConversion struct {
	// Credited is true when this call transitioned the click; false means the
	// click was already converted and the call was an idempotent no-op.
	Credited   bool
	Commission decimal.Decimal
}

// AffiliateClickLedger is the external click store. Conversion is
// compare-and-swap on the converted flag so orchestrator replays cannot
// double-credit commission.
type AffiliateClickLedger interface {
	// LinkAnonymousClicks assigns fid as the visitor identity of anonymous
	// clicks whose visitor key correlates to that fid.
	LinkAnonymousClicks(ctx context.Context, fid string) (linked int, err error)
	// FindClicks returns clicks for the visitor and product, unconverted first.
	FindClicks(ctx context.Context, visitorFid, productID string) ([]domain.AffiliateClick, error)
	// Convert credits commission on the click for itemTotal, linking it to the
	// order reference. Converting an already-converted click is a no-op.
	Convert(ctx context.Context, clickID, orderReference string, itemTotal decimal.Decimal, at time.Time) (ClickConversion, error)
	// Record creates a click, or bumps last-clicked-at when an unconverted
	// click for the same visitor and product already exists.
	Record(ctx context.Context, click domain.AffiliateClick) (domain.AffiliateClick, error)
	ListByReferrer(ctx context.Context, referrerFid string) ([]domain.AffiliateClick, error)
}

// StorePatternRepository persists learned store patterns between rebuilds.
type StorePatternRepository interface {
	ReplaceAll(ctx context.Context, patterns []domain.StorePattern) error
	ListAll(ctx context.Context) ([]domain.StorePattern, error)
}

// ProductRepository exposes the assigned catalog the pattern analyzer learns from.
type ProductRepository interface {
	ListAssigned(ctx context.Context) ([]domain.Product, error)
}

// PatternCache holds the categorizer's pattern table with an explicit
// lifecycle, so staleness and refresh timing stay under the caller's control
// instead of a lazily populated module singleton.
type PatternCache interface {
	Initialize(ctx context.Context, patterns []domain.StorePattern) error
	Get(ctx context.Context) ([]domain.StorePattern, error)
	Refresh(ctx context.Context, patterns []domain.StorePattern) error
}

type OutboxRecord struct {
	OutboxID     string
	EventType    string
	EventClass   string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	RetryCount   int
}

// OutboxRepository stores domain events pending broker delivery. Claim tokens
// keep concurrent workers from double-publishing a record.
type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID, claimToken, reason string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID, claimToken, reason string, at time.Time) error
}
