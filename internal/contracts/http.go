package contracts

// VerifyPaymentRequest is the POST /orders/verify-payment body.
type VerifyPaymentRequest struct {
	OrderReference string `json:"orderReference"`
	TransactionID  string `json:"transactionId"`
	Testnet        bool   `json:"testnet,omitempty"`
}

// VerifyPaymentResponse mirrors the storefront's expected verify-payment shape.
// PaymentStatus is set on success; OrderUpdated/AffiliateProcessed report what
// this call actually did, not cumulative state.
type VerifyPaymentResponse struct {
	Success            bool   `json:"success"`
	PaymentStatus      string `json:"paymentStatus,omitempty"`
	OrderUpdated       *bool  `json:"orderUpdated,omitempty"`
	AffiliateProcessed *bool  `json:"affiliateProcessed,omitempty"`
	Error              string `json:"error,omitempty"`
}

type OrderLineItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	SKU       string `json:"sku"`
}

type OrderResponse struct {
	Reference          string          `json:"reference"`
	PaymentStatus      string          `json:"payment_status"`
	OrderStatus        string          `json:"order_status"`
	PaymentHash        string          `json:"payment_hash,omitempty"`
	PaymentCompletedAt string          `json:"payment_completed_at,omitempty"`
	BuyerFid           string          `json:"buyer_fid,omitempty"`
	BuyerUsername      string          `json:"buyer_username,omitempty"`
	LineItems          []OrderLineItem `json:"line_items"`
	TotalAmount        string          `json:"total_amount"`
	Currency           string          `json:"currency"`
	CreatedAt          string          `json:"created_at"`
}

type RecordClickRequest struct {
	ReferrerFid string `json:"referrer_fid"`
	VisitorFid  string `json:"visitor_fid,omitempty"`
	VisitorKey  string `json:"visitor_key,omitempty"`
	ProductID   string `json:"product_id"`
}

type RecordClickResponse struct {
	ClickID       string `json:"click_id"`
	LastClickedAt string `json:"last_clicked_at"`
}

type ClickResponse struct {
	ClickID            string `json:"click_id"`
	ReferrerFid        string `json:"referrer_fid"`
	VisitorFid         string `json:"visitor_fid,omitempty"`
	ProductID          string `json:"product_id"`
	Converted          bool   `json:"converted"`
	CommissionAmount   string `json:"commission_amount,omitempty"`
	CommissionEarnedAt string `json:"commission_earned_at,omitempty"`
	OrderReference     string `json:"order_reference,omitempty"`
	ClickedAt          string `json:"clicked_at"`
	LastClickedAt      string `json:"last_clicked_at"`
}

type ClickListResponse struct {
	Items []ClickResponse `json:"items"`
}

type CategorizeProductRequest struct {
	ProductID   string   `json:"product_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ProductType string   `json:"product_type,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type CategorizeProductResponse struct {
	StoreID  string `json:"store_id,omitempty"`
	Assigned bool   `json:"assigned"`
	Score    int    `json:"score"`
}

type RefreshPatternsResponse struct {
	Stores      int    `json:"stores"`
	RefreshedAt string `json:"refreshed_at"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
