package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop-core/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderTestRouter(orders *MockOrderService) http.Handler {
	h := NewOrderHandler(orders, zerolog.Nop())
	r := chi.NewRouter()
	r.Patch("/api/orders/{id}/status", h.UpdateStatus)
	return r
}

func TestUpdateStatus_Handler(t *testing.T) {
	orders := new(MockOrderService)
	router := newOrderTestRouter(orders)

	orderID := uuid.New()
	updated := &model.Order{ID: orderID, Status: model.OrderStatusShipped, Version: 3}
	orders.On("UpdateStatus", mock.Anything, orderID, model.OrderStatusShipped, int64(2)).Return(updated, nil)

	body, _ := json.Marshal(map[string]any{"status": "shipped", "version": 2})
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/orders/%s/status", orderID), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.OrderStatusShipped, got.Status)
}

func TestUpdateStatus_Handler_InvalidTransition(t *testing.T) {
	orders := new(MockOrderService)
	router := newOrderTestRouter(orders)

	orderID := uuid.New()
	orders.On("UpdateStatus", mock.Anything, orderID, model.OrderStatusDelivered, int64(1)).
		Return(nil, model.ErrInvalidOrderMove)

	body, _ := json.Marshal(map[string]any{"status": "delivered", "version": 1})
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/orders/%s/status", orderID), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatus_Handler_VersionConflict(t *testing.T) {
	orders := new(MockOrderService)
	router := newOrderTestRouter(orders)

	orderID := uuid.New()
	orders.On("UpdateStatus", mock.Anything, orderID, model.OrderStatusPaid, int64(1)).
		Return(nil, model.ErrVersionConflict)

	body, _ := json.Marshal(map[string]any{"status": "paid", "version": 1})
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/orders/%s/status", orderID), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateStatus_Handler_InvalidID(t *testing.T) {
	router := newOrderTestRouter(new(MockOrderService))

	body, _ := json.Marshal(map[string]any{"status": "paid", "version": 1})
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/abc/status", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
