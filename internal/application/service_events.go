package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farstore/checkout-core/internal/contracts"
	"github.com/farstore/checkout-core/internal/domain"
	"github.com/farstore/checkout-core/internal/ports"
)

func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, data any, now time.Time) error {
	if s.outbox == nil {
		return nil
	}
	if !domain.IsCanonicalEmittedEvent(eventType) {
		return domain.ErrInvalidInput
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	env := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClass(eventType),
		OccurredAt:       now,
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          uuid.NewString(),
		SchemaVersion:    s.cfg.OutboxSchema,
		Data:             raw,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{
		OutboxID:     uuid.NewString(),
		EventType:    eventType,
		EventClass:   env.EventClass,
		PartitionKey: partitionKey,
		Payload:      payload,
		CreatedAt:    now,
	})
}

func (s *Service) enqueueOrderPaymentConfirmed(ctx context.Context, order domain.Order, confirmedAt, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventOrderPaymentConfirmed, order.Reference, contracts.OrderPaymentConfirmedPayload{
		OrderReference: order.Reference,
		PaymentHash:    order.PaymentHash,
		BuyerFid:       order.BuyerFid,
		TotalAmount:    order.TotalAmount.StringFixed(2),
		Currency:       order.Currency,
		ConfirmedAt:    confirmedAt.UTC().Format(time.RFC3339),
	}, now)
}

func (s *Service) enqueueAffiliateClickTracked(ctx context.Context, click domain.AffiliateClick, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventAffiliateClickTracked, click.ReferrerFid, contracts.AffiliateClickTrackedPayload{
		ClickID:     click.ClickID,
		ReferrerFid: click.ReferrerFid,
		VisitorFid:  click.VisitorFid,
		ProductID:   click.ProductID,
		TrackedAt:   click.LastClickedAt.UTC().Format(time.RFC3339),
	}, now)
}

func (s *Service) enqueueAffiliateCommissionEarned(ctx context.Context, click domain.AffiliateClick, orderReference, productID string, itemTotal, commission decimal.Decimal, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventAffiliateCommissionEarned, click.ReferrerFid, contracts.AffiliateCommissionEarnedPayload{
		ClickID:        click.ClickID,
		ReferrerFid:    click.ReferrerFid,
		OrderReference: orderReference,
		ProductID:      productID,
		ItemTotal:      itemTotal.StringFixed(2),
		Commission:     commission.StringFixed(2),
		EarnedAt:       now.UTC().Format(time.RFC3339),
	}, now)
}

func (s *Service) enqueueAffiliateAnonymousLinked(ctx context.Context, visitorFid string, linked int, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventAffiliateAnonymousLinked, visitorFid, contracts.AffiliateAnonymousLinkedPayload{
		VisitorFid:  visitorFid,
		LinkedCount: linked,
		LinkedAt:    now.UTC().Format(time.RFC3339),
	}, now)
}

func (s *Service) enqueueProductCategorized(ctx context.Context, productID, storeID string, score int, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventProductCategorized, productID, contracts.ProductCategorizedPayload{
		ProductID:     productID,
		StoreID:       storeID,
		Score:         score,
		CategorizedAt: now.UTC().Format(time.RFC3339),
	}, now)
}
