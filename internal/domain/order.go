package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment lifecycle for an order. Transitions move forward only: once an order
// reaches PaymentStatusConfirmed the confirmation workflow never re-transitions it.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Fulfillment lifecycle for an order.
const (
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
)

// LineItem is one purchased product variant on an order.
// UnitPrice is carried as a decimal string the way checkout produced it.
type LineItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	SKU       string `json:"sku"`
}

// Total resolves unit price times quantity as an exact decimal amount.
func (i LineItem) Total() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(i.UnitPrice)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Mul(decimal.NewFromInt(int64(i.Quantity))), nil
}

// Order is a storefront purchase keyed by a human-shareable reference.
// It is created by the external checkout flow and mutated only by the payment
// confirmation workflow after successful oracle verification.
type Order struct {
	Reference          string          `json:"reference"`
	PaymentStatus      string          `json:"payment_status"`
	OrderStatus        string          `json:"order_status"`
	PaymentHash        string          `json:"payment_hash,omitempty"`
	PaymentCompletedAt *time.Time      `json:"payment_completed_at,omitempty"`
	WalletAddress      string          `json:"wallet_address"`
	BuyerFid           string          `json:"buyer_fid,omitempty"`
	BuyerUsername      string          `json:"buyer_username,omitempty"`
	EncryptedCustomer  string          `json:"encrypted_customer,omitempty"`
	LineItems          []LineItem      `json:"line_items"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Currency           string          `json:"currency"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PaymentConfirmed reports whether the confirmation transition already ran and
// recorded its proof. Both conditions must hold for the idempotency gate.
func (o Order) PaymentConfirmed() bool {
	return o.PaymentStatus == PaymentStatusConfirmed && o.PaymentHash != ""
}
