package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farstore/checkout-core/internal/application"
	"github.com/farstore/checkout-core/internal/contracts"
	"github.com/farstore/checkout-core/internal/domain"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

// verifyPayment is the storefront's payment confirmation callback. The
// response shape is part of the storefront contract: success plus the three
// outcome fields, or success=false with a verbatim error string.
func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req contracts.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.OrderReference) == "" || strings.TrimSpace(req.TransactionID) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: orderReference and transactionId are required")
		return
	}

	result, err := h.service.ConfirmPayment(r.Context(), req.OrderReference, req.TransactionID, req.Testnet)
	if err != nil {
		code, msg := mapDomainError(err)
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, contracts.VerifyPaymentResponse{
		Success:            true,
		PaymentStatus:      result.PaymentStatus,
		OrderUpdated:       &result.OrderUpdated,
		AffiliateProcessed: &result.AffiliateProcessed,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		code, msg := mapDomainError(err)
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) recordClick(w http.ResponseWriter, r *http.Request) {
	var req contracts.RecordClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	click, err := h.service.RecordClick(r.Context(), application.RecordClickInput{
		ReferrerFid: req.ReferrerFid,
		VisitorFid:  req.VisitorFid,
		VisitorKey:  req.VisitorKey,
		ProductID:   req.ProductID,
	})
	if err != nil {
		code, msg := mapDomainError(err)
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusCreated, contracts.RecordClickResponse{
		ClickID:       click.ClickID,
		LastClickedAt: click.LastClickedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) categorizeProduct(w http.ResponseWriter, r *http.Request) {
	var req contracts.CategorizeProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	storeID, score, assigned, err := h.service.Categorize(r.Context(), domain.Product{
		ProductID:   req.ProductID,
		Title:       req.Title,
		Description: req.Description,
		ProductType: req.ProductType,
		Vendor:      req.Vendor,
		Tags:        req.Tags,
	})
	if err != nil {
		code, msg := mapDomainError(err)
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, contracts.CategorizeProductResponse{
		StoreID:  storeID,
		Assigned: assigned,
		Score:    score,
	})
}

func (h *Handler) refreshPatterns(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.RefreshPatterns(r.Context())
	if err != nil {
		code, msg := mapDomainError(err)
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, contracts.RefreshPatternsResponse{
		Stores:      stores,
		RefreshedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) listClicks(w http.ResponseWriter, r *http.Request) {
	clicks, err := h.service.ListClicksByReferrer(r.Context(), r.URL.Query().Get("fid"))
	if err != nil {
		code, msg := mapDomainError(err)
		writeError(w, code, msg)
		return
	}
	items := make([]contracts.ClickResponse, 0, len(clicks))
	for _, c := range clicks {
		items = append(items, toClickResponse(c))
	}
	writeJSON(w, http.StatusOK, contracts.ClickListResponse{Items: items})
}

func toOrderResponse(order domain.Order) contracts.OrderResponse {
	items := make([]contracts.OrderLineItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, contracts.OrderLineItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			SKU:       item.SKU,
		})
	}
	out := contracts.OrderResponse{
		Reference:     order.Reference,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
		PaymentHash:   order.PaymentHash,
		BuyerFid:      order.BuyerFid,
		BuyerUsername: order.BuyerUsername,
		LineItems:     items,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		Currency:      order.Currency,
		CreatedAt:     order.CreatedAt.UTC().Format(time.RFC3339),
	}
	if order.PaymentCompletedAt != nil {
		out.PaymentCompletedAt = order.PaymentCompletedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func toClickResponse(click domain.AffiliateClick) contracts.ClickResponse {
	out := contracts.ClickResponse{
		ClickID:        click.ClickID,
		ReferrerFid:    click.ReferrerFid,
		VisitorFid:     click.VisitorFid,
		ProductID:      click.ProductID,
		Converted:      click.Converted,
		OrderReference: click.OrderReference,
		ClickedAt:      click.ClickedAt.UTC().Format(time.RFC3339),
		LastClickedAt:  click.LastClickedAt.UTC().Format(time.RFC3339),
	}
	if click.CommissionAmount != nil {
		out.CommissionAmount = click.CommissionAmount.StringFixed(2)
	}
	if click.CommissionEarnedAt != nil {
		out.CommissionEarnedAt = click.CommissionEarnedAt.UTC().Format(time.RFC3339)
	}
	return out
}
