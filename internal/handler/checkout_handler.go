package handler

import (
	"encoding/json"
	"net"
	"net/http"

	"shop-core/internal/model"
	"shop-core/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderIdempotencyKey carries the client-supplied retry token.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderUserID carries the authenticated user identity resolved by the
// auth collaborator in front of this service.
const HeaderUserID = "X-User-ID"

// CheckoutHandler handles checkout-from-cart requests.
type CheckoutHandler struct {
	checkout service.CheckoutService
	payments service.PaymentService
	orders   service.OrderService
	logger   zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(
	checkout service.CheckoutService,
	payments service.PaymentService,
	orders service.OrderService,
	logger zerolog.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		payments: payments,
		orders:   orders,
		logger:   logger.With().Str("handler", "checkout").Logger(),
	}
}

// Checkout handles POST /api/checkout requests: it creates the order
// atomically and opens a payment attempt for it.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	input := &model.CheckoutInput{
		UserID:           userID,
		IdempotencyKey:   r.Header.Get(HeaderIdempotencyKey),
		ShippingMethodID: req.ShippingMethodID,
		UserAddressID:    req.UserAddressID,
		DiscountCode:     req.DiscountCode,
		CallbackURL:      req.CallbackURL,
		ClientIP:         clientIP(r),
	}

	order, err := h.checkout.CheckoutFromCart(r.Context(), input)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	resp, err := h.payments.InitiatePayment(r.Context(), order, req.CallbackURL)
	if err != nil {
		// The order exists and is retriable with the same idempotency key;
		// only the payment leg failed.
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetOrder handles GET /api/orders/{id} requests.
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID", h.logger)
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// requireUserID parses the authenticated user header.
func requireUserID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.Header.Get(HeaderUserID))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid user identity", logger)
		return uuid.Nil, false
	}
	return userID, true
}

// clientIP extracts the requester's IP for rate-limit audit logging.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
