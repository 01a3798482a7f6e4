package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateClick is a tracked referral event in the click ledger.
//
// VisitorFid may be empty while the visitor is anonymous; it is linked
// retroactively once a wallet resolves to a known fid at order time, using the
// visitor key the external share flow assigned to the browser session.
//
// Invariant: Converted implies CommissionAmount, CommissionEarnedAt and
// OrderReference are all set. A click converts at most once; the ledger
// enforces at most one unconverted click per visitor and product pair.
type AffiliateClick struct {
	ClickID            string           `json:"click_id"`
	ReferrerFid        string           `json:"referrer_fid"`
	VisitorFid         string           `json:"visitor_fid,omitempty"`
	VisitorKey         string           `json:"visitor_key,omitempty"`
	ProductID          string           `json:"product_id"`
	ClickedAt          time.Time        `json:"clicked_at"`
	LastClickedAt      time.Time        `json:"last_clicked_at"`
	Converted          bool             `json:"converted"`
	CommissionAmount   *decimal.Decimal `json:"commission_amount,omitempty"`
	CommissionEarnedAt *time.Time       `json:"commission_earned_at,omitempty"`
	OrderReference     string           `json:"order_reference,omitempty"`
}
