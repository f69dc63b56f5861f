package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"shop-core/internal/model"
	"shop-core/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InventoryHandler handles stock adjustment and ledger read requests.
type InventoryHandler struct {
	inventory service.InventoryService
	logger    zerolog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventory service.InventoryService, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger.With().Str("handler", "inventory").Logger(),
	}
}

// Adjust handles POST /api/inventory/adjust requests.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	txn, err := h.inventory.AdjustStock(r.Context(), &req, &userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if txn == nil {
		// Unlimited variant: nothing recorded.
		writeJSON(w, http.StatusOK, map[string]string{"status": "no-op"})
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

// GetStock handles GET /api/variants/{id}/stock requests.
func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid variant ID", h.logger)
		return
	}

	stock, err := h.inventory.GetCurrentStock(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"stock": stock})
}

// ListTransactions handles GET /api/variants/{id}/transactions requests.
func (h *InventoryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid variant ID", h.logger)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txns, err := h.inventory.ListTransactions(r.Context(), id, limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}
