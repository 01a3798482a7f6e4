package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farstore/checkout-core/internal/domain"
)

type orderModel struct {
	Reference          string          `gorm:"column:reference;primaryKey"`
	PaymentStatus      string          `gorm:"column:payment_status"`
	OrderStatus        string          `gorm:"column:order_status"`
	PaymentHash        *string         `gorm:"column:payment_hash"`
	PaymentCompletedAt *time.Time      `gorm:"column:payment_completed_at"`
	WalletAddress      string          `gorm:"column:wallet_address"`
	BuyerFid           *string         `gorm:"column:buyer_fid"`
	BuyerUsername      *string         `gorm:"column:buyer_username"`
	EncryptedCustomer  *string         `gorm:"column:encrypted_customer"`
	LineItems          string          `gorm:"column:line_items;type:jsonb"`
	TotalAmount        decimal.Decimal `gorm:"column:total_amount;type:decimal(20,2)"`
	Currency           string          `gorm:"column:currency"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (orderModel) TableName() string { return "orders" }

type clickModel struct {
	ClickID            string           `gorm:"column:click_id;primaryKey"`
	ReferrerFid        string           `gorm:"column:referrer_fid"`
	VisitorFid         *string          `gorm:"column:visitor_fid"`
	VisitorKey         *string          `gorm:"column:visitor_key"`
	ProductID          string           `gorm:"column:product_id"`
	ClickedAt          time.Time        `gorm:"column:clicked_at"`
	LastClickedAt      time.Time        `gorm:"column:last_clicked_at"`
	Converted          bool             `gorm:"column:converted"`
	CommissionAmount   *decimal.Decimal `gorm:"column:commission_amount;type:decimal(20,2)"`
	CommissionEarnedAt *time.Time       `gorm:"column:commission_earned_at"`
	OrderReference     *string          `gorm:"column:order_reference"`
}

func (clickModel) TableName() string { return "affiliate_clicks" }

type storePatternModel struct {
	StoreID      string    `gorm:"column:store_id;primaryKey"`
	Keywords     string    `gorm:"column:keywords;type:jsonb"`
	ProductTypes string    `gorm:"column:product_types;type:jsonb"`
	Vendors      string    `gorm:"column:vendors;type:jsonb"`
	Tags         string    `gorm:"column:tags;type:jsonb"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (storePatternModel) TableName() string { return "store_patterns" }

type productModel struct {
	ProductID   string    `gorm:"column:product_id;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description *string   `gorm:"column:description"`
	ProductType *string   `gorm:"column:product_type"`
	Vendor      *string   `gorm:"column:vendor"`
	Tags        string    `gorm:"column:tags;type:jsonb"`
	StoreID     *string   `gorm:"column:store_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (productModel) TableName() string { return "products" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	EventClass   string     `gorm:"column:event_class"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	DeadLettered bool       `gorm:"column:dead_lettered"`
	RetryCount   int        `gorm:"column:retry_count"`
	ClaimToken   *string    `gorm:"column:claim_token"`
	ClaimUntil   *time.Time `gorm:"column:claim_until"`
	LastError    *string    `gorm:"column:last_error"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
}

func (outboxModel) TableName() string { return "checkout_outbox" }

func toDomainOrder(rec orderModel) (domain.Order, error) {
	var items []domain.LineItem
	if rec.LineItems != "" {
		if err := json.Unmarshal([]byte(rec.LineItems), &items); err != nil {
			return domain.Order{}, err
		}
	}
	out := domain.Order{
		Reference:          rec.Reference,
		PaymentStatus:      rec.PaymentStatus,
		OrderStatus:        rec.OrderStatus,
		PaymentCompletedAt: rec.PaymentCompletedAt,
		WalletAddress:      rec.WalletAddress,
		LineItems:          items,
		TotalAmount:        rec.TotalAmount,
		Currency:           rec.Currency,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if rec.PaymentHash != nil {
		out.PaymentHash = *rec.PaymentHash
	}
	if rec.BuyerFid != nil {
		out.BuyerFid = *rec.BuyerFid
	}
	if rec.BuyerUsername != nil {
		out.BuyerUsername = *rec.BuyerUsername
	}
	if rec.EncryptedCustomer != nil {
		out.EncryptedCustomer = *rec.EncryptedCustomer
	}
	return out, nil
}

func toDomainClick(rec clickModel) domain.AffiliateClick {
	out := domain.AffiliateClick{
		ClickID:            rec.ClickID,
		ReferrerFid:        rec.ReferrerFid,
		ProductID:          rec.ProductID,
		ClickedAt:          rec.ClickedAt,
		LastClickedAt:      rec.LastClickedAt,
		Converted:          rec.Converted,
		CommissionAmount:   rec.CommissionAmount,
		CommissionEarnedAt: rec.CommissionEarnedAt,
	}
	if rec.VisitorFid != nil {
		out.VisitorFid = *rec.VisitorFid
	}
	if rec.VisitorKey != nil {
		out.VisitorKey = *rec.VisitorKey
	}
	if rec.OrderReference != nil {
		out.OrderReference = *rec.OrderReference
	}
	return out
}

func toDomainPattern(rec storePatternModel) (domain.StorePattern, error) {
	out := domain.StorePattern{StoreID: rec.StoreID}
	fields := []struct {
		raw string
		dst *[]string
	}{
		{rec.Keywords, &out.Keywords},
		{rec.ProductTypes, &out.ProductTypes},
		{rec.Vendors, &out.Vendors},
		{rec.Tags, &out.Tags},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return domain.StorePattern{}, err
		}
	}
	return out, nil
}

func toDomainProduct(rec productModel) (domain.Product, error) {
	out := domain.Product{ProductID: rec.ProductID, Title: rec.Title}
	if rec.Description != nil {
		out.Description = *rec.Description
	}
	if rec.ProductType != nil {
		out.ProductType = *rec.ProductType
	}
	if rec.Vendor != nil {
		out.Vendor = *rec.Vendor
	}
	if rec.StoreID != nil {
		out.StoreID = *rec.StoreID
	}
	if rec.Tags != "" {
		if err := json.Unmarshal([]byte(rec.Tags), &out.Tags); err != nil {
			return domain.Product{}, err
		}
	}
	return out, nil
}
