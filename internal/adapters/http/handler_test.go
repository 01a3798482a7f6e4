package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	httpadapter "github.com/farstore/checkout-core/internal/adapters/http"
	"github.com/farstore/checkout-core/internal/adapters/memory"
	"github.com/farstore/checkout-core/internal/application"
	"github.com/farstore/checkout-core/internal/contracts"
	"github.com/farstore/checkout-core/internal/domain"
	"github.com/farstore/checkout-core/internal/ports"
)

const testJWTSecret = "test-admin-secret"

type stubOracle struct {
	status ports.PaymentStatus
	calls  int
}

func (o *stubOracle) GetStatus(_ context.Context, _ string, _ bool) (ports.PaymentStatus, error) {
	o.calls++
	return o.status, nil
}

func newTestServer(t *testing.T) (http.Handler, *memory.Repositories, *stubOracle) {
	t.Helper()
	repos := memory.NewRepositories(decimal.NewFromFloat(0.02))
	completedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	oracle := &stubOracle{status: ports.PaymentStatus{
		Status:          ports.OracleStatusCompleted,
		TransactionHash: "0xabc123",
		CompletedAt:     &completedAt,
	}}
	svc := application.NewService(application.Dependencies{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Orders:   repos.Orders,
		Clicks:   repos.Clicks,
		Patterns: repos.Patterns,
		Products: repos.Products,
		Cache:    memory.NewPatternCache(),
		Outbox:   repos.Outbox,
		Oracle:   oracle,
	})
	if err := svc.InitializePatterns(context.Background()); err != nil {
		t.Fatalf("initialize patterns: %v", err)
	}
	return httpadapter.NewRouter(httpadapter.NewHandler(svc), testJWTSecret), repos, oracle
}

func seedTestOrder(repos *memory.Repositories) {
	repos.Orders.Seed(domain.Order{
		Reference:     "BS-1001",
		PaymentStatus: domain.PaymentStatusPending,
		OrderStatus:   domain.OrderStatusProcessing,
		BuyerFid:      "999",
		LineItems: []domain.LineItem{
			{ProductID: "55", Title: "Wireless Mouse", UnitPrice: "10.00", Quantity: 2},
		},
		TotalAmount: decimal.RequireFromString("20.00"),
		Currency:    "USDC",
		CreatedAt:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
	})
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVerifyPayment_MissingFields(t *testing.T) {
	router, _, oracle := newTestServer(t)

	rec := postJSON(t, router, "/api/v1/orders/verify-payment", contracts.VerifyPaymentRequest{
		OrderReference: "BS-1001",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Fatal("success must be false")
	}
	want := "Missing required fields: orderReference and transactionId are required"
	if resp.Error != want {
		t.Fatalf("error = %q, want %q", resp.Error, want)
	}
	if oracle.calls != 0 {
		t.Fatalf("oracle consulted %d times before validation", oracle.calls)
	}
}

func TestVerifyPayment_Success(t *testing.T) {
	router, repos, _ := newTestServer(t)
	seedTestOrder(repos)

	rec := postJSON(t, router, "/api/v1/orders/verify-payment", contracts.VerifyPaymentRequest{
		OrderReference: "BS-1001",
		TransactionID:  "0xtx1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp contracts.VerifyPaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success=false: %s", rec.Body.String())
	}
	if resp.PaymentStatus != "completed" {
		t.Fatalf("paymentStatus = %q", resp.PaymentStatus)
	}
	if resp.OrderUpdated == nil || !*resp.OrderUpdated {
		t.Fatal("orderUpdated must be true on first confirmation")
	}
	if resp.AffiliateProcessed == nil || *resp.AffiliateProcessed {
		t.Fatal("affiliateProcessed must be false with no clicks in the ledger")
	}
}

func TestVerifyPayment_OrderNotFound(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := postJSON(t, router, "/api/v1/orders/verify-payment", contracts.VerifyPaymentRequest{
		OrderReference: "BS-MISSING",
		TransactionID:  "0xtx1",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "Order not found" {
		t.Fatalf("error = %q, want Order not found", resp.Error)
	}
}

func TestVerifyPayment_InvalidJSON(t *testing.T) {
	router, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/verify-payment", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetOrder(t *testing.T) {
	router, repos, _ := newTestServer(t)
	seedTestOrder(repos)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/BS-1001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp contracts.OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reference != "BS-1001" || resp.TotalAmount != "20.00" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if len(resp.LineItems) != 1 || resp.LineItems[0].ProductID != "55" {
		t.Fatalf("line items: %+v", resp.LineItems)
	}
}

func TestRecordClick(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := postJSON(t, router, "/api/v1/affiliate/clicks", contracts.RecordClickRequest{
		ReferrerFid: "777",
		VisitorFid:  "999",
		ProductID:   "55",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp contracts.RecordClickResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClickID == "" {
		t.Fatal("click_id missing")
	}
}

func TestRecordClick_MissingReferrer(t *testing.T) {
	router, _, _ := newTestServer(t)
	rec := postJSON(t, router, "/api/v1/affiliate/clicks", contracts.RecordClickRequest{ProductID: "55"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCategorizeProduct(t *testing.T) {
	router, repos, _ := newTestServer(t)
	seedPatterns(t, repos, router)

	rec := postJSON(t, router, "/api/v1/products/categorize", contracts.CategorizeProductRequest{
		ProductID:   "55",
		Title:       "Wireless Mouse",
		ProductType: "Electronics",
		Vendor:      "TechWave",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp contracts.CategorizeProductResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Assigned || resp.StoreID != "techwave-electronics" {
		t.Fatalf("assignment: %+v", resp)
	}
}

// seedPatterns assigns a small catalog and refreshes through the admin route
// so the cache holds a real pattern table.
func seedPatterns(t *testing.T, repos *memory.Repositories, router http.Handler) {
	t.Helper()
	repos.Products.Seed(
		domain.Product{ProductID: "1", StoreID: "techwave-electronics", Title: "Wireless Gaming Mouse", ProductType: "Electronics", Vendor: "TechWave"},
		domain.Product{ProductID: "2", StoreID: "techwave-electronics", Title: "Mechanical Keyboard", ProductType: "Electronics", Vendor: "TechWave"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/patterns/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "admin"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"role": role,
		"sub":  "ops-cli",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	router, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/patterns/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/patterns/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "viewer"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer role status = %d, want 403", rec.Code)
	}
}

func TestAdminListClicks(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := postJSON(t, router, "/api/v1/affiliate/clicks", contracts.RecordClickRequest{
		ReferrerFid: "777", VisitorFid: "999", ProductID: "55",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed click: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/affiliate/clicks?fid=777", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "admin"))
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, req)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", listRec.Code, listRec.Body.String())
	}
	var resp contracts.ClickListResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ReferrerFid != "777" {
		t.Fatalf("items: %+v", resp.Items)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}
