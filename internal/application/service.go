package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/farstore/checkout-core/internal/domain"
	"github.com/farstore/checkout-core/internal/ports"
)

// ConfirmPayment verifies a transaction against the payment oracle and, on the
// first completed verification, transitions the order to confirmed, fires the
// notification emails and runs affiliate attribution over the line items.
//
// Only three failures are terminal: the oracle being unreachable, the order
// missing, and the confirm transition failing to persist. Notification and
// attribution failures degrade to structured log records so a payment
// confirmation is never blocked by a downstream marketing feature.
//
// Re-invoking after a persisted confirmation is a no-op for the state
// transition and notifications, but attribution still re-runs when the order
// carries a buyer fid: a prior attempt may have been partial, and ledger
// conversions are idempotent.
func (s *Service) ConfirmPayment(ctx context.Context, orderReference, transactionID string, testnet bool) (ConfirmPaymentResult, error) {
	orderReference = strings.TrimSpace(orderReference)
	transactionID = strings.TrimSpace(transactionID)
	if orderReference == "" || transactionID == "" {
		return ConfirmPaymentResult{}, domain.ErrInvalidInput
	}

	status, err := s.oracle.GetStatus(ctx, transactionID, testnet)
	if err != nil {
		return ConfirmPaymentResult{}, fmt.Errorf("%w: %v", domain.ErrPaymentOracle, err)
	}
	if status.Status != ports.OracleStatusCompleted {
		// Normal "not yet" outcome: the caller polls again later.
		return ConfirmPaymentResult{PaymentStatus: status.Status}, nil
	}

	order, err := s.orders.GetByReference(ctx, orderReference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrOrderNotFound) {
			return ConfirmPaymentResult{}, domain.ErrOrderNotFound
		}
		return ConfirmPaymentResult{}, fmt.Errorf("load order %s: %w", orderReference, err)
	}

	if order.PaymentConfirmed() {
		// Idempotency gate: transition and notifications already happened.
		// Attribution alone is retried; it may have failed or been partial.
		processed := 0
		if order.BuyerFid != "" {
			outcome := s.Attribute(ctx, order.Reference, order.BuyerFid, order.LineItems)
			processed = outcome.Processed
		}
		return ConfirmPaymentResult{
			PaymentStatus:      ports.OracleStatusCompleted,
			OrderUpdated:       false,
			AffiliateProcessed: processed > 0,
		}, nil
	}

	now := s.nowFn()
	paymentHash := status.TransactionHash
	if paymentHash == "" {
		paymentHash = transactionID
	}
	completedAt := now
	if status.CompletedAt != nil {
		completedAt = *status.CompletedAt
	}

	updated, err := s.orders.ConfirmPayment(ctx, order.Reference, paymentHash, completedAt, now)
	if err != nil {
		return ConfirmPaymentResult{}, fmt.Errorf("%w: %v", domain.ErrOrderPersist, err)
	}

	if updated {
		order.PaymentStatus = domain.PaymentStatusConfirmed
		order.OrderStatus = domain.OrderStatusConfirmed
		order.PaymentHash = paymentHash
		order.PaymentCompletedAt = &completedAt

		if err := s.enqueueOrderPaymentConfirmed(ctx, order, completedAt, now); err != nil {
			s.logger.ErrorContext(ctx, "order confirmed event enqueue failed",
				"module", "application.service",
				"layer", "application",
				"operation", "confirm_payment",
				"outcome", "degraded",
				"order_reference", order.Reference,
				"error", err,
			)
		}
		s.sendConfirmationNotifications(ctx, order, paymentHash)
	}

	affiliateProcessed := false
	if order.BuyerFid != "" {
		outcome := s.Attribute(ctx, order.Reference, order.BuyerFid, order.LineItems)
		affiliateProcessed = outcome.Processed > 0
	}

	return ConfirmPaymentResult{
		PaymentStatus:      ports.OracleStatusCompleted,
		OrderUpdated:       updated,
		AffiliateProcessed: affiliateProcessed,
	}, nil
}

// sendConfirmationNotifications fires the admin and customer emails.
// Fire-and-observe: each failure becomes a log record with the order reference
// and cause, and nothing else.
func (s *Service) sendConfirmationNotifications(ctx context.Context, order domain.Order, paymentHash string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendAdmin(ctx, order, paymentHash); err != nil {
		s.logger.ErrorContext(ctx, "admin notification failed",
			"module", "application.service",
			"layer", "application",
			"operation", "send_admin_notification",
			"outcome", "degraded",
			"order_reference", order.Reference,
			"error", err,
		)
	}
	if err := s.notifier.SendCustomer(ctx, order, paymentHash); err != nil {
		s.logger.ErrorContext(ctx, "customer notification failed",
			"module", "application.service",
			"layer", "application",
			"operation", "send_customer_notification",
			"outcome", "degraded",
			"order_reference", order.Reference,
			"error", err,
		)
	}
}

// GetOrder returns the order for a storefront status lookup.
func (s *Service) GetOrder(ctx context.Context, reference string) (domain.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return domain.Order{}, domain.ErrInvalidInput
	}
	order, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

// RecordClick stores a referral click. Repeat clicks for the same visitor and
// product bump last-clicked-at on the existing unconverted row instead of
// creating a duplicate.
func (s *Service) RecordClick(ctx context.Context, in RecordClickInput) (domain.AffiliateClick, error) {
	in.ReferrerFid = strings.TrimSpace(in.ReferrerFid)
	in.VisitorFid = strings.TrimSpace(in.VisitorFid)
	in.VisitorKey = strings.TrimSpace(in.VisitorKey)
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.ReferrerFid == "" || in.ProductID == "" {
		return domain.AffiliateClick{}, domain.ErrInvalidInput
	}
	now := s.nowFn()
	click := domain.AffiliateClick{
		ClickID:       "click_" + uuid.NewString(),
		ReferrerFid:   in.ReferrerFid,
		VisitorFid:    in.VisitorFid,
		VisitorKey:    in.VisitorKey,
		ProductID:     in.ProductID,
		ClickedAt:     now,
		LastClickedAt: now,
	}
	stored, err := s.clicks.Record(ctx, click)
	if err != nil {
		return domain.AffiliateClick{}, err
	}
	if err := s.enqueueAffiliateClickTracked(ctx, stored, now); err != nil {
		s.logger.WarnContext(ctx, "click tracked event enqueue failed",
			"module", "application.service",
			"layer", "application",
			"operation", "record_click",
			"outcome", "degraded",
			"click_id", stored.ClickID,
			"error", err,
		)
	}
	return stored, nil
}

// ListClicksByReferrer is the admin ledger inspection view.
func (s *Service) ListClicksByReferrer(ctx context.Context, referrerFid string) ([]domain.AffiliateClick, error) {
	referrerFid = strings.TrimSpace(referrerFid)
	if referrerFid == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.clicks.ListByReferrer(ctx, referrerFid)
}
