package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
)

const (
	EventOrderPaymentConfirmed     = "order.payment.confirmed"
	EventAffiliateClickTracked     = "affiliate.click.tracked"
	EventAffiliateCommissionEarned = "affiliate.commission.earned"
	EventAffiliateAnonymousLinked  = "affiliate.anonymous.linked"
	EventProductCategorized        = "product.categorized"
)

func IsCanonicalEmittedEvent(eventType string) bool {
	switch eventType {
	case EventOrderPaymentConfirmed, EventAffiliateClickTracked, EventAffiliateCommissionEarned, EventAffiliateAnonymousLinked, EventProductCategorized:
		return true
	default:
		return false
	}
}

func CanonicalEventClass(eventType string) string {
	switch eventType {
	case EventAffiliateAnonymousLinked, EventProductCategorized:
		return CanonicalEventClassAnalyticsOnly
	default:
		if IsCanonicalEmittedEvent(eventType) {
			return CanonicalEventClassDomain
		}
		return ""
	}
}

// CanonicalPartitionKeyPath names the payload field brokers partition on.
// Order events shard by order reference, affiliate events by referrer fid.
func CanonicalPartitionKeyPath(eventType string) string {
	switch eventType {
	case EventOrderPaymentConfirmed:
		return "data.order_reference"
	case EventAffiliateClickTracked, EventAffiliateCommissionEarned:
		return "data.referrer_fid"
	case EventAffiliateAnonymousLinked:
		return "data.visitor_fid"
	case EventProductCategorized:
		return "data.product_id"
	default:
		return ""
	}
}
