package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"shop-core/internal/model"
	"shop-core/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PaymentHandler handles payment verification and gateway webhooks.
type PaymentHandler struct {
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(payments service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger.With().Str("handler", "payment").Logger(),
	}
}

// Verify handles GET /api/payments/verify requests, the synchronous leg of
// the gateway callback.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	authority := r.URL.Query().Get("authority")
	status := r.URL.Query().Get("status")
	if authority == "" {
		writeError(w, http.StatusBadRequest, "authority is required", h.logger)
		return
	}

	result, err := h.payments.VerifyPayment(r.Context(), authority, status)
	if err != nil {
		// A settled-but-unsuccessful attempt still yields a structured
		// result the caller can show; only lookup and transport failures
		// map onto error statuses.
		if result != nil {
			var domainErr *model.DomainError
			if errors.As(err, &domainErr) {
				writeJSON(w, statusForCode(domainErr.Code), result)
				return
			}
		}
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Status handles GET /api/payments/{authority} requests, an authenticated
// read over the stored attempt.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	authority := chi.URLParam(r, "authority")
	if authority == "" {
		writeError(w, http.StatusBadRequest, "authority is required", h.logger)
		return
	}

	pt, err := h.payments.GetByAuthority(r.Context(), authority)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, pt)
}

// Webhook handles POST /api/payments/webhook requests, the asynchronous leg
// of the gateway callback. Well-formed input is always acknowledged so the
// gateway stops redelivering.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req model.WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.Authority == "" {
		writeError(w, http.StatusBadRequest, "authority is required", h.logger)
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), &req); err != nil {
		// Infrastructure failure: let the gateway redeliver.
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
