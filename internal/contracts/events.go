package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type OrderPaymentConfirmedPayload struct {
	OrderReference string `json:"order_reference"`
	PaymentHash    string `json:"payment_hash"`
	BuyerFid       string `json:"buyer_fid,omitempty"`
	TotalAmount    string `json:"total_amount"`
	Currency       string `json:"currency"`
	ConfirmedAt    string `json:"confirmed_at"`
}

type AffiliateClickTrackedPayload struct {
	ClickID     string `json:"click_id"`
	ReferrerFid string `json:"referrer_fid"`
	VisitorFid  string `json:"visitor_fid,omitempty"`
	ProductID   string `json:"product_id"`
	TrackedAt   string `json:"tracked_at"`
}

type AffiliateCommissionEarnedPayload struct {
	ClickID        string `json:"click_id"`
	ReferrerFid    string `json:"referrer_fid"`
	OrderReference string `json:"order_reference"`
	ProductID      string `json:"product_id"`
	ItemTotal      string `json:"item_total"`
	Commission     string `json:"commission"`
	EarnedAt       string `json:"earned_at"`
}

type AffiliateAnonymousLinkedPayload struct {
	ReferrerFid string `json:"referrer_fid,omitempty"`
	VisitorFid  string `json:"visitor_fid"`
	LinkedCount int    `json:"linked_count"`
	LinkedAt    string `json:"linked_at"`
}

type ProductCategorizedPayload struct {
	ProductID     string `json:"product_id"`
	StoreID       string `json:"store_id"`
	Score         int    `json:"score"`
	CategorizedAt string `json:"categorized_at"`
}
