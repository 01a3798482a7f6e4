package application

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farstore/checkout-core/internal/ports"
)

type Config struct {
	ServiceName string
	// CommissionRate is the fixed share of an item total credited on
	// conversion. The ledger stores the resulting amount; the attribution
	// engine never recomputes it after the fact.
	CommissionRate decimal.Decimal
	// AssignThreshold is the minimum categorizer score before a product is
	// placed in a store bucket instead of left unassigned.
	AssignThreshold int
	OutboxSchema    string
}

// ConfirmPaymentResult is what one verify-payment call actually did.
type ConfirmPaymentResult struct {
	PaymentStatus      string
	OrderUpdated       bool
	AffiliateProcessed bool
}

// AttributionOutcome counts per-item results. Errors never abort the run.
type AttributionOutcome struct {
	Processed int
	Errors    int
}

type RecordClickInput struct {
	ReferrerFid string
	VisitorFid  string
	VisitorKey  string
	ProductID   string
}

type Service struct {
	cfg    Config
	logger *slog.Logger

	orders   ports.OrderRepository
	clicks   ports.AffiliateClickLedger
	patterns ports.StorePatternRepository
	products ports.ProductRepository
	cache    ports.PatternCache
	outbox   ports.OutboxRepository

	oracle   ports.PaymentOracle
	notifier ports.NotificationSender

	scorer Scorer
	nowFn  func() time.Time
}

type Dependencies struct {
	Config Config
	Logger *slog.Logger

	Orders   ports.OrderRepository
	Clicks   ports.AffiliateClickLedger
	Patterns ports.StorePatternRepository
	Products ports.ProductRepository
	Cache    ports.PatternCache
	Outbox   ports.OutboxRepository

	Oracle   ports.PaymentOracle
	Notifier ports.NotificationSender

	Scorer Scorer
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "checkout-core"
	}
	if cfg.CommissionRate.IsZero() {
		cfg.CommissionRate = decimal.NewFromFloat(0.02)
	}
	if cfg.AssignThreshold <= 0 {
		cfg.AssignThreshold = 5
	}
	if cfg.OutboxSchema == "" {
		cfg.OutboxSchema = "v1"
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = KeywordScorer{}
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		orders:   deps.Orders,
		clicks:   deps.Clicks,
		patterns: deps.Patterns,
		products: deps.Products,
		cache:    deps.Cache,
		outbox:   deps.Outbox,
		oracle:   deps.Oracle,
		notifier: deps.Notifier,
		scorer:   scorer,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}
