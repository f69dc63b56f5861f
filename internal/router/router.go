package router

import (
	"net/http"

	"shop-core/internal/handler"
	"shop-core/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	checkoutHandler *handler.CheckoutHandler,
	paymentHandler *handler.PaymentHandler,
	inventoryHandler *handler.InventoryHandler,
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/checkout", checkoutHandler.Checkout)

		r.Get("/payments/verify", paymentHandler.Verify)
		r.Post("/payments/webhook", paymentHandler.Webhook)
		r.Get("/payments/{authority}", paymentHandler.Status)

		r.Get("/orders/{id}", checkoutHandler.GetOrder)
		r.Patch("/orders/{id}/status", orderHandler.UpdateStatus)

		r.Post("/inventory/adjust", inventoryHandler.Adjust)
		r.Get("/variants/{id}/stock", inventoryHandler.GetStock)
		r.Get("/variants/{id}/transactions", inventoryHandler.ListTransactions)
	})

	return r
}
