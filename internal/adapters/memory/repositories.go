// Package memory provides map-backed implementations of every port. They keep
// local runs and tests dependency-free while mirroring the conditional-update
// semantics of the Postgres adapters.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farstore/checkout-core/internal/domain"
	"github.com/farstore/checkout-core/internal/ports"
)

type Repositories struct {
	Orders   *OrderRepository
	Clicks   *ClickLedger
	Patterns *PatternRepository
	Products *ProductRepository
	Outbox   *OutboxRepository
}

func NewRepositories(commissionRate decimal.Decimal) *Repositories {
	return &Repositories{
		Orders:   &OrderRepository{rows: map[string]domain.Order{}},
		Clicks:   NewClickLedger(commissionRate),
		Patterns: &PatternRepository{},
		Products: &ProductRepository{},
		Outbox:   &OutboxRepository{rows: map[string]ports.OutboxRecord{}},
	}
}

type OrderRepository struct {
	mu   sync.Mutex
	rows map[string]domain.Order
}

func (r *OrderRepository) Seed(order domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[order.Reference] = order
}

func (r *OrderRepository) GetByReference(_ context.Context, reference string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[strings.TrimSpace(reference)]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *OrderRepository) ConfirmPayment(_ context.Context, reference, paymentHash string, completedAt, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[reference]
	if !ok {
		return false, domain.ErrNotFound
	}
	// Same guard as the SQL: WHERE payment_status <> 'confirmed'.
	if row.PaymentStatus == domain.PaymentStatusConfirmed {
		return false, nil
	}
	row.PaymentStatus = domain.PaymentStatusConfirmed
	row.OrderStatus = domain.OrderStatusConfirmed
	row.PaymentHash = paymentHash
	row.PaymentCompletedAt = &completedAt
	row.UpdatedAt = now
	r.rows[reference] = row
	return true, nil
}

type ClickLedger struct {
	mu             sync.Mutex
	rows           map[string]domain.AffiliateClick
	visitorFidKeys map[string][]string // fid -> visitor keys the share flow correlated
	commissionRate decimal.Decimal
}

func NewClickLedger(commissionRate decimal.Decimal) *ClickLedger {
	if commissionRate.IsZero() {
		commissionRate = decimal.NewFromFloat(0.02)
	}
	return &ClickLedger{
		rows:           map[string]domain.AffiliateClick{},
		visitorFidKeys: map[string][]string{},
		commissionRate: commissionRate,
	}
}

// CorrelateVisitor registers an external visitor-key-to-fid correlation, the
// piece the real ledger owns.
func (r *ClickLedger) CorrelateVisitor(fid, visitorKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visitorFidKeys[fid] = append(r.visitorFidKeys[fid], visitorKey)
}

func (r *ClickLedger) Seed(click domain.AffiliateClick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[click.ClickID] = click
}

func (r *ClickLedger) Get(clickID string) (domain.AffiliateClick, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[clickID]
	return row, ok
}

func (r *ClickLedger) LinkAnonymousClicks(_ context.Context, fid string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := map[string]struct{}{}
	for _, k := range r.visitorFidKeys[fid] {
		keys[k] = struct{}{}
	}
	linked := 0
	for id, row := range r.rows {
		if row.VisitorFid != "" || row.VisitorKey == "" {
			continue
		}
		if _, ok := keys[row.VisitorKey]; !ok {
			continue
		}
		row.VisitorFid = fid
		r.rows[id] = row
		linked++
	}
	return linked, nil
}

func (r *ClickLedger) FindClicks(_ context.Context, visitorFid, productID string) ([]domain.AffiliateClick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.AffiliateClick{}
	for _, row := range r.rows {
		if row.VisitorFid == visitorFid && row.ProductID == productID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Converted != out[j].Converted {
			return !out[i].Converted
		}
		return out[i].LastClickedAt.After(out[j].LastClickedAt)
	})
	return out, nil
}

func (r *ClickLedger) Convert(_ context.Context, clickID, orderReference string, itemTotal decimal.Decimal, at time.Time) (ports.ClickConversion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[clickID]
	if !ok {
		return ports.ClickConversion{}, domain.ErrNotFound
	}
	// Same guard as the SQL: WHERE converted = false.
	if row.Converted {
		commission := decimal.Zero
		if row.CommissionAmount != nil {
			commission = *row.CommissionAmount
		}
		return ports.ClickConversion{Credited: false, Commission: commission}, nil
	}
	commission := itemTotal.Mul(r.commissionRate).Round(2)
	row.Converted = true
	row.CommissionAmount = &commission
	row.CommissionEarnedAt = &at
	row.OrderReference = orderReference
	r.rows[clickID] = row
	return ports.ClickConversion{Credited: true, Commission: commission}, nil
}

func (r *ClickLedger) Record(_ context.Context, click domain.AffiliateClick) (domain.AffiliateClick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.Converted {
			continue
		}
		sameVisitor := (row.VisitorFid != "" && row.VisitorFid == click.VisitorFid) ||
			(row.VisitorFid == "" && row.VisitorKey != "" && row.VisitorKey == click.VisitorKey)
		if sameVisitor && row.ProductID == click.ProductID {
			row.LastClickedAt = click.LastClickedAt
			r.rows[id] = row
			return row, nil
		}
	}
	r.rows[click.ClickID] = click
	return click, nil
}

func (r *ClickLedger) ListByReferrer(_ context.Context, referrerFid string) ([]domain.AffiliateClick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.AffiliateClick{}
	for _, row := range r.rows {
		if row.ReferrerFid == referrerFid {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClickedAt.Before(out[j].ClickedAt) })
	return out, nil
}

type PatternRepository struct {
	mu   sync.Mutex
	rows []domain.StorePattern
}

func (r *PatternRepository) ReplaceAll(_ context.Context, patterns []domain.StorePattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append([]domain.StorePattern(nil), patterns...)
	return nil
}

func (r *PatternRepository) ListAll(_ context.Context) ([]domain.StorePattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StorePattern(nil), r.rows...), nil
}

type ProductRepository struct {
	mu   sync.Mutex
	rows []domain.Product
}

func (r *ProductRepository) Seed(products ...domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, products...)
}

func (r *ProductRepository) ListAssigned(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Product{}
	for _, p := range r.rows {
		if p.StoreID != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type outboxState struct {
	record       ports.OutboxRecord
	publishedAt  *time.Time
	deadLettered bool
	claimToken   string
	claimUntil   time.Time
}

type OutboxRepository struct {
	mu    sync.Mutex
	rows  map[string]ports.OutboxRecord
	state map[string]*outboxState
	order []string
}

func (r *OutboxRepository) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		r.state = map[string]*outboxState{}
	}
	r.rows[record.OutboxID] = record
	r.state[record.OutboxID] = &outboxState{record: record}
	r.order = append(r.order, record.OutboxID)
	return nil
}

func (r *OutboxRepository) ClaimUnpublished(_ context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []ports.OutboxRecord{}
	now := time.Now().UTC()
	for _, id := range r.order {
		if len(out) >= limit {
			break
		}
		st := r.state[id]
		if st == nil || st.publishedAt != nil || st.deadLettered {
			continue
		}
		if st.claimToken != "" && st.claimUntil.After(now) {
			continue
		}
		st.claimToken = claimToken
		st.claimUntil = claimUntil
		out = append(out, st.record)
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID, claimToken string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state[outboxID]
	if st == nil || st.claimToken != claimToken {
		return domain.ErrConflict
	}
	st.publishedAt = &at
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID, claimToken, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state[outboxID]
	if st == nil || st.claimToken != claimToken {
		return domain.ErrConflict
	}
	st.record.RetryCount++
	st.claimToken = ""
	return nil
}

func (r *OutboxRepository) MarkDeadLettered(_ context.Context, outboxID, claimToken, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state[outboxID]
	if st == nil || st.claimToken != claimToken {
		return domain.ErrConflict
	}
	st.deadLettered = true
	return nil
}

// Pending returns unpublished records in enqueue order, for tests and the
// local runtime's drain loop.
func (r *OutboxRepository) Pending() []ports.OutboxRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []ports.OutboxRecord{}
	for _, id := range r.order {
		st := r.state[id]
		if st != nil && st.publishedAt == nil && !st.deadLettered {
			out = append(out, st.record)
		}
	}
	return out
}

// PatternCache is the in-memory cache implementation with the explicit
// Initialize/Refresh lifecycle.
type PatternCache struct {
	mu          sync.Mutex
	patterns    []domain.StorePattern
	initialized bool
}

func NewPatternCache() *PatternCache { return &PatternCache{} }

func (c *PatternCache) Initialize(_ context.Context, patterns []domain.StorePattern) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append([]domain.StorePattern(nil), patterns...)
	c.initialized = true
	return nil
}

func (c *PatternCache) Get(_ context.Context) ([]domain.StorePattern, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, domain.ErrNotFound
	}
	return append([]domain.StorePattern(nil), c.patterns...), nil
}

func (c *PatternCache) Refresh(ctx context.Context, patterns []domain.StorePattern) error {
	return c.Initialize(ctx, patterns)
}
