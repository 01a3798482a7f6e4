package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler, adminJWTSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders/verify-payment", handler.verifyPayment)
		r.Get("/orders/{reference}", handler.getOrder)
		r.Post("/affiliate/clicks", handler.recordClick)
		r.Post("/products/categorize", handler.categorizeProduct)

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(adminJWTSecret))
			r.Post("/admin/patterns/refresh", handler.refreshPatterns)
			r.Get("/admin/affiliate/clicks", handler.listClicks)
		})
	})
	return r
}
