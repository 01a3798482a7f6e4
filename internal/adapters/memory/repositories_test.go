package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farstore/checkout-core/internal/domain"
)

func TestOrderConfirmPayment_ConditionalTransition(t *testing.T) {
	repos := NewRepositories(decimal.NewFromFloat(0.02))
	repos.Orders.Seed(domain.Order{Reference: "BS-1", PaymentStatus: domain.PaymentStatusPending})
	now := time.Now().UTC()

	updated, err := repos.Orders.ConfirmPayment(context.Background(), "BS-1", "0xhash", now, now)
	if err != nil || !updated {
		t.Fatalf("first transition updated=%v err=%v", updated, err)
	}
	updated, err = repos.Orders.ConfirmPayment(context.Background(), "BS-1", "0xother", now, now)
	if err != nil {
		t.Fatalf("replay err: %v", err)
	}
	if updated {
		t.Fatal("replay must lose the conditional update")
	}
	order, _ := repos.Orders.GetByReference(context.Background(), "BS-1")
	if order.PaymentHash != "0xhash" {
		t.Fatalf("hash overwritten on replay: %q", order.PaymentHash)
	}
}

func TestClickLedgerConvert_CompareAndSwap(t *testing.T) {
	ledger := NewClickLedger(decimal.NewFromFloat(0.02))
	now := time.Now().UTC()
	ledger.Seed(domain.AffiliateClick{ClickID: "click_1", ReferrerFid: "777", VisitorFid: "999", ProductID: "55", ClickedAt: now, LastClickedAt: now})
	itemTotal := decimal.RequireFromString("20.00")

	first, err := ledger.Convert(context.Background(), "click_1", "BS-1", itemTotal, now)
	if err != nil {
		t.Fatalf("first convert: %v", err)
	}
	if !first.Credited || !first.Commission.Equal(decimal.RequireFromString("0.40")) {
		t.Fatalf("first conversion: %+v", first)
	}

	second, err := ledger.Convert(context.Background(), "click_1", "BS-1", decimal.RequireFromString("999.00"), now)
	if err != nil {
		t.Fatalf("second convert: %v", err)
	}
	if second.Credited {
		t.Fatal("replay must not credit again")
	}
	if !second.Commission.Equal(first.Commission) {
		t.Fatalf("replay reports %s, want the original %s", second.Commission, first.Commission)
	}
}

func TestClickLedgerFindClicks_UnconvertedFirst(t *testing.T) {
	ledger := NewClickLedger(decimal.NewFromFloat(0.02))
	base := time.Now().UTC()
	converted := decimal.RequireFromString("0.10")
	ledger.Seed(domain.AffiliateClick{ClickID: "click_old", VisitorFid: "999", ProductID: "55", Converted: true, CommissionAmount: &converted, ClickedAt: base.Add(-2 * time.Hour), LastClickedAt: base.Add(-2 * time.Hour)})
	ledger.Seed(domain.AffiliateClick{ClickID: "click_new", VisitorFid: "999", ProductID: "55", ClickedAt: base, LastClickedAt: base})

	clicks, err := ledger.FindClicks(context.Background(), "999", "55")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(clicks) != 2 {
		t.Fatalf("clicks = %d, want 2", len(clicks))
	}
	if clicks[0].ClickID != "click_new" {
		t.Fatalf("first click = %s, want the unconverted one", clicks[0].ClickID)
	}
}

func TestClickLedgerRecord_BumpsByVisitorKey(t *testing.T) {
	ledger := NewClickLedger(decimal.NewFromFloat(0.02))
	base := time.Now().UTC()

	first, err := ledger.Record(context.Background(), domain.AffiliateClick{ClickID: "click_1", ReferrerFid: "777", VisitorKey: "vk-1", ProductID: "55", ClickedAt: base, LastClickedAt: base})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	later := base.Add(time.Hour)
	second, err := ledger.Record(context.Background(), domain.AffiliateClick{ClickID: "click_2", ReferrerFid: "777", VisitorKey: "vk-1", ProductID: "55", ClickedAt: later, LastClickedAt: later})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if second.ClickID != first.ClickID {
		t.Fatal("same anonymous visitor and product must reuse the row")
	}
	if !second.LastClickedAt.Equal(later) {
		t.Fatalf("last clicked not bumped: %v", second.LastClickedAt)
	}
}

func TestLinkAnonymousClicks(t *testing.T) {
	ledger := NewClickLedger(decimal.NewFromFloat(0.02))
	now := time.Now().UTC()
	ledger.Seed(domain.AffiliateClick{ClickID: "click_anon", ReferrerFid: "777", VisitorKey: "vk-1", ProductID: "55", ClickedAt: now, LastClickedAt: now})
	ledger.Seed(domain.AffiliateClick{ClickID: "click_other", ReferrerFid: "777", VisitorKey: "vk-2", ProductID: "55", ClickedAt: now, LastClickedAt: now})
	ledger.CorrelateVisitor("999", "vk-1")

	linked, err := ledger.LinkAnonymousClicks(context.Background(), "999")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if linked != 1 {
		t.Fatalf("linked = %d, want 1", linked)
	}
	click, _ := ledger.Get("click_other")
	if click.VisitorFid != "" {
		t.Fatalf("uncorrelated click adopted fid %q", click.VisitorFid)
	}
}

func TestPatternCache_Lifecycle(t *testing.T) {
	cache := NewPatternCache()
	if _, err := cache.Get(context.Background()); err == nil {
		t.Fatal("Get before Initialize must fail")
	}
	patterns := []domain.StorePattern{{StoreID: "store-a", Keywords: []string{"mouse"}}}
	if err := cache.Initialize(context.Background(), patterns); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	got, err := cache.Get(context.Background())
	if err != nil || len(got) != 1 || got[0].StoreID != "store-a" {
		t.Fatalf("get after init: %v %+v", err, got)
	}
	if err := cache.Refresh(context.Background(), nil); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, _ = cache.Get(context.Background())
	if len(got) != 0 {
		t.Fatalf("refresh did not replace the table: %+v", got)
	}
}
