package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farstore/checkout-core/internal/domain"
	"github.com/farstore/checkout-core/internal/ports"
)

type Repositories struct {
	Orders   ports.OrderRepository
	Clicks   ports.AffiliateClickLedger
	Patterns ports.StorePatternRepository
	Products ports.ProductRepository
	Outbox   ports.OutboxRepository
}

func NewRepositories(db *gorm.DB, commissionRate decimal.Decimal) Repositories {
	if commissionRate.IsZero() {
		commissionRate = decimal.NewFromFloat(0.02)
	}
	return Repositories{
		Orders:   &orderRepository{db: db},
		Clicks:   &clickLedger{db: db, commissionRate: commissionRate},
		Patterns: &patternRepository{db: db},
		Products: &productRepository{db: db},
		Outbox:   &outboxRepository{db: db},
	}
}

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) GetByReference(ctx context.Context, reference string) (domain.Order, error) {
	var rec orderModel
	if err := r.db.WithContext(ctx).Where("reference = ?", strings.TrimSpace(reference)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	return toDomainOrder(rec)
}

func (r *orderRepository) ConfirmPayment(ctx context.Context, reference, paymentHash string, completedAt, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("reference = ? AND payment_status <> ?", reference, domain.PaymentStatusConfirmed).
		Updates(map[string]any{
			"payment_status":       domain.PaymentStatusConfirmed,
			"order_status":         domain.OrderStatusConfirmed,
			"payment_hash":         paymentHash,
			"payment_completed_at": completedAt,
			"updated_at":           now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	// Zero rows means a concurrent call already confirmed; the caller treats
	// that like the idempotency-gate path, not an error.
	return res.RowsAffected > 0, nil
}

type clickLedger struct {
	db             *gorm.DB
	commissionRate decimal.Decimal
}

func (r *clickLedger) LinkAnonymousClicks(ctx context.Context, fid string) (int, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE affiliate_clicks
		SET visitor_fid = ?
		WHERE visitor_fid IS NULL
		  AND visitor_key IN (SELECT visitor_key FROM visitor_identities WHERE fid = ?)`,
		fid, fid)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *clickLedger) FindClicks(ctx context.Context, visitorFid, productID string) ([]domain.AffiliateClick, error) {
	var recs []clickModel
	err := r.db.WithContext(ctx).
		Where("visitor_fid = ? AND product_id = ?", visitorFid, productID).
		Order("converted ASC, last_clicked_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AffiliateClick, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainClick(rec))
	}
	return out, nil
}

func (r *clickLedger) Convert(ctx context.Context, clickID, orderReference string, itemTotal decimal.Decimal, at time.Time) (ports.ClickConversion, error) {
	commission := itemTotal.Mul(r.commissionRate).Round(2)
	res := r.db.WithContext(ctx).
		Model(&clickModel{}).
		Where("click_id = ? AND converted = ?", clickID, false).
		Updates(map[string]any{
			"converted":            true,
			"commission_amount":    commission,
			"commission_earned_at": at,
			"order_reference":      orderReference,
		})
	if res.Error != nil {
		return ports.ClickConversion{}, res.Error
	}
	if res.RowsAffected > 0 {
		return ports.ClickConversion{Credited: true, Commission: commission}, nil
	}
	// Compare-and-swap missed: the click is already converted (replay) or gone.
	var rec clickModel
	if err := r.db.WithContext(ctx).Where("click_id = ?", clickID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ClickConversion{}, domain.ErrNotFound
		}
		return ports.ClickConversion{}, err
	}
	existing := decimal.Zero
	if rec.CommissionAmount != nil {
		existing = *rec.CommissionAmount
	}
	return ports.ClickConversion{Credited: false, Commission: existing}, nil
}

func (r *clickLedger) Record(ctx context.Context, click domain.AffiliateClick) (domain.AffiliateClick, error) {
	// Bump the existing unconverted row for this visitor and product first;
	// only insert when nothing matched.
	query := r.db.WithContext(ctx).Model(&clickModel{}).Where("converted = ? AND product_id = ?", false, click.ProductID)
	switch {
	case click.VisitorFid != "":
		query = query.Where("visitor_fid = ?", click.VisitorFid)
	case click.VisitorKey != "":
		query = query.Where("visitor_fid IS NULL AND visitor_key = ?", click.VisitorKey)
	default:
		query = nil
	}
	if query != nil {
		var existing clickModel
		err := query.Session(&gorm.Session{}).Take(&existing).Error
		if err == nil {
			if err := r.db.WithContext(ctx).Model(&clickModel{}).
				Where("click_id = ?", existing.ClickID).
				Update("last_clicked_at", click.LastClickedAt).Error; err != nil {
				return domain.AffiliateClick{}, err
			}
			existing.LastClickedAt = click.LastClickedAt
			return toDomainClick(existing), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AffiliateClick{}, err
		}
	}

	rec := clickModel{
		ClickID:       click.ClickID,
		ReferrerFid:   click.ReferrerFid,
		ProductID:     click.ProductID,
		ClickedAt:     click.ClickedAt,
		LastClickedAt: click.LastClickedAt,
	}
	if click.VisitorFid != "" {
		rec.VisitorFid = &click.VisitorFid
	}
	if click.VisitorKey != "" {
		rec.VisitorKey = &click.VisitorKey
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.AffiliateClick{}, domain.ErrConflict
		}
		return domain.AffiliateClick{}, err
	}
	return toDomainClick(rec), nil
}

func (r *clickLedger) ListByReferrer(ctx context.Context, referrerFid string) ([]domain.AffiliateClick, error) {
	var recs []clickModel
	err := r.db.WithContext(ctx).
		Where("referrer_fid = ?", referrerFid).
		Order("clicked_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AffiliateClick, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainClick(rec))
	}
	return out, nil
}

type patternRepository struct {
	db *gorm.DB
}

func (r *patternRepository) ReplaceAll(ctx context.Context, patterns []domain.StorePattern) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM store_patterns").Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, p := range patterns {
			rec := storePatternModel{
				StoreID:      p.StoreID,
				Keywords:     marshalStrings(p.Keywords),
				ProductTypes: marshalStrings(p.ProductTypes),
				Vendors:      marshalStrings(p.Vendors),
				Tags:         marshalStrings(p.Tags),
				UpdatedAt:    now,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *patternRepository) ListAll(ctx context.Context) ([]domain.StorePattern, error) {
	var recs []storePatternModel
	if err := r.db.WithContext(ctx).Order("store_id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.StorePattern, 0, len(recs))
	for _, rec := range recs {
		p, err := toDomainPattern(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) ListAssigned(ctx context.Context) ([]domain.Product, error) {
	var recs []productModel
	if err := r.db.WithContext(ctx).Where("store_id IS NOT NULL").Order("product_id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		p, err := toDomainProduct(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	rec := outboxModel{
		OutboxID:     record.OutboxID,
		EventType:    record.EventType,
		EventClass:   record.EventClass,
		PartitionKey: record.PartitionKey,
		Payload:      string(record.Payload),
		CreatedAt:    record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *outboxRepository) ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Exec(`
		UPDATE checkout_outbox
		SET claim_token = ?, claim_until = ?
		WHERE outbox_id IN (
			SELECT outbox_id FROM checkout_outbox
			WHERE published_at IS NULL
			  AND dead_lettered = FALSE
			  AND (claim_token IS NULL OR claim_until < ?)
			ORDER BY created_at ASC
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		)`, claimToken, claimUntil, now, limit)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var recs []outboxModel
	if err := r.db.WithContext(ctx).Where("claim_token = ?", claimToken).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ports.OutboxRecord{
			OutboxID:     rec.OutboxID,
			EventType:    rec.EventType,
			EventClass:   rec.EventClass,
			PartitionKey: rec.PartitionKey,
			Payload:      []byte(rec.Payload),
			CreatedAt:    rec.CreatedAt,
			RetryCount:   rec.RetryCount,
		})
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID, claimToken string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND claim_token = ?", outboxID, claimToken).
		Update("published_at", at).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, outboxID, claimToken, reason string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND claim_token = ?", outboxID, claimToken).
		Updates(map[string]any{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"claim_token":   nil,
			"last_error":    reason,
			"last_error_at": at,
		}).Error
}

func (r *outboxRepository) MarkDeadLettered(ctx context.Context, outboxID, claimToken, reason string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND claim_token = ?", outboxID, claimToken).
		Updates(map[string]any{
			"dead_lettered": true,
			"last_error":    reason,
			"last_error_at": at,
		}).Error
}

func marshalStrings(in []string) string {
	if len(in) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
