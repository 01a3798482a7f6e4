package application

import (
	"context"

	"github.com/farstore/checkout-core/internal/domain"
)

// Attribute links a buyer's prior affiliate clicks to a paid order and credits
// commission per purchased line item. It never returns an error: every failure
// is counted and logged, and the remaining items still run.
//
// Items are independent; they are processed in input order with no cross-item
// invariant. Conversion is a ledger-side compare-and-swap on the converted
// flag, so replaying the whole order is safe.
func (s *Service) Attribute(ctx context.Context, orderReference, buyerFid string, items []domain.LineItem) AttributionOutcome {
	if buyerFid == "" {
		return AttributionOutcome{}
	}

	// Step A: adopt anonymous clicks correlated to this fid. Clicks not being
	// linkable is a normal outcome, so a failure here never aborts step B.
	linked, err := s.clicks.LinkAnonymousClicks(ctx, buyerFid)
	if err != nil {
		s.logger.WarnContext(ctx, "anonymous click linking failed",
			"module", "application.attribution",
			"layer", "application",
			"operation", "link_anonymous_clicks",
			"outcome", "degraded",
			"order_reference", orderReference,
			"buyer_fid", buyerFid,
			"error", err,
		)
	} else if linked > 0 {
		now := s.nowFn()
		if err := s.enqueueAffiliateAnonymousLinked(ctx, buyerFid, linked, now); err != nil {
			s.logger.WarnContext(ctx, "anonymous linked event enqueue failed",
				"module", "application.attribution",
				"layer", "application",
				"operation", "link_anonymous_clicks",
				"outcome", "degraded",
				"buyer_fid", buyerFid,
				"error", err,
			)
		}
	}

	var out AttributionOutcome
	for _, item := range items {
		matches, err := s.clicks.FindClicks(ctx, buyerFid, item.ProductID)
		if err != nil {
			out.Errors++
			s.logger.ErrorContext(ctx, "affiliate click lookup failed",
				"module", "application.attribution",
				"layer", "application",
				"operation", "find_click",
				"outcome", "failure",
				"order_reference", orderReference,
				"product_id", item.ProductID,
				"error", err,
			)
			continue
		}
		if len(matches) == 0 {
			// No affiliate involved in this item. Not an error.
			continue
		}
		click := matches[0]

		itemTotal, err := item.Total()
		if err != nil {
			out.Errors++
			s.logger.ErrorContext(ctx, "line item price unparsable",
				"module", "application.attribution",
				"layer", "application",
				"operation", "item_total",
				"outcome", "failure",
				"order_reference", orderReference,
				"product_id", item.ProductID,
				"unit_price", item.UnitPrice,
				"error", err,
			)
			continue
		}

		now := s.nowFn()
		conv, err := s.clicks.Convert(ctx, click.ClickID, orderReference, itemTotal, now)
		if err != nil {
			out.Errors++
			s.logger.ErrorContext(ctx, "affiliate conversion failed",
				"module", "application.attribution",
				"layer", "application",
				"operation", "convert_click",
				"outcome", "failure",
				"order_reference", orderReference,
				"click_id", click.ClickID,
				"product_id", item.ProductID,
				"error", err,
			)
			continue
		}
		out.Processed++
		if conv.Credited {
			if err := s.enqueueAffiliateCommissionEarned(ctx, click, orderReference, item.ProductID, itemTotal, conv.Commission, now); err != nil {
				s.logger.WarnContext(ctx, "commission earned event enqueue failed",
					"module", "application.attribution",
					"layer", "application",
					"operation", "convert_click",
					"outcome", "degraded",
					"click_id", click.ClickID,
					"error", err,
				)
			}
		}
	}
	return out
}
