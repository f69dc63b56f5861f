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

func newCheckoutTestRouter(checkout *MockCheckoutService, payments *MockPaymentService, orders *MockOrderService) http.Handler {
	h := NewCheckoutHandler(checkout, payments, orders, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/api/checkout", h.Checkout)
	r.Get("/api/orders/{id}", h.GetOrder)
	return r
}

func checkoutBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(model.CheckoutRequest{
		ShippingMethodID: uuid.New(),
		UserAddressID:    uuid.New(),
		CallbackURL:      "https://shop.example/cb",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestCheckout_Success(t *testing.T) {
	checkout := new(MockCheckoutService)
	payments := new(MockPaymentService)
	router := newCheckoutTestRouter(checkout, payments, new(MockOrderService))

	userID := uuid.New()
	order := &model.Order{ID: uuid.New(), UserID: userID, FinalAmount: 550}

	checkout.On("CheckoutFromCart", mock.Anything, mock.MatchedBy(func(in *model.CheckoutInput) bool {
		return in.UserID == userID && in.IdempotencyKey == "key-1"
	})).Return(order, nil)
	payments.On("InitiatePayment", mock.Anything, order, "https://shop.example/cb").
		Return(&model.CheckoutResponse{OrderID: order.ID, Authority: "A-1", PaymentURL: "https://gw/pg/StartPay/A-1"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", checkoutBody(t))
	req.Header.Set(HeaderUserID, userID.String())
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp model.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, order.ID, resp.OrderID)
	assert.Equal(t, "A-1", resp.Authority)
}

func TestCheckout_MissingUserHeader(t *testing.T) {
	checkout := new(MockCheckoutService)
	router := newCheckoutTestRouter(checkout, new(MockPaymentService), new(MockOrderService))

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", checkoutBody(t))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	checkout.AssertNotCalled(t, "CheckoutFromCart", mock.Anything, mock.Anything)
}

func TestCheckout_InvalidBody(t *testing.T) {
	router := newCheckoutTestRouter(new(MockCheckoutService), new(MockPaymentService), new(MockOrderService))

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewBufferString("{not json"))
	req.Header.Set(HeaderUserID, uuid.New().String())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_DomainErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing idempotency key", model.ErrMissingIdemKey, http.StatusBadRequest},
		{"rate limited", model.ErrCheckoutLimited, http.StatusTooManyRequests},
		{"empty cart", model.ErrCartEmpty, http.StatusBadRequest},
		{"insufficient stock", model.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{"discount rejected", model.ErrDiscountExpired, http.StatusBadRequest},
		{"concurrency retries exhausted", model.ErrConcurrencyRetries, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := new(MockCheckoutService)
			router := newCheckoutTestRouter(checkout, new(MockPaymentService), new(MockOrderService))

			checkout.On("CheckoutFromCart", mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/checkout", checkoutBody(t))
			req.Header.Set(HeaderUserID, uuid.New().String())
			req.Header.Set(HeaderIdempotencyKey, "key-1")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCheckout_PaymentLegFailure(t *testing.T) {
	checkout := new(MockCheckoutService)
	payments := new(MockPaymentService)
	router := newCheckoutTestRouter(checkout, payments, new(MockOrderService))

	order := &model.Order{ID: uuid.New()}
	checkout.On("CheckoutFromCart", mock.Anything, mock.Anything).Return(order, nil)
	payments.On("InitiatePayment", mock.Anything, order, mock.Anything).
		Return(nil, model.ErrGatewayUnavailable)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", checkoutBody(t))
	req.Header.Set(HeaderUserID, uuid.New().String())
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCheckout_ReplayOfPaidOrderConflicts(t *testing.T) {
	checkout := new(MockCheckoutService)
	payments := new(MockPaymentService)
	router := newCheckoutTestRouter(checkout, payments, new(MockOrderService))

	// A retried idempotency key replays the stored order; once that order
	// is paid the payment leg refuses a second charge.
	order := &model.Order{ID: uuid.New(), IsPaid: true, Status: model.OrderStatusPaid}
	checkout.On("CheckoutFromCart", mock.Anything, mock.Anything).Return(order, nil)
	payments.On("InitiatePayment", mock.Anything, order, mock.Anything).
		Return(nil, model.ErrOrderAlreadyPaid)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", checkoutBody(t))
	req.Header.Set(HeaderUserID, uuid.New().String())
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetOrder(t *testing.T) {
	orders := new(MockOrderService)
	router := newCheckoutTestRouter(new(MockCheckoutService), new(MockPaymentService), orders)

	orderID := uuid.New()
	orders.On("GetByID", mock.Anything, orderID).
		Return(&model.OrderResponse{Order: model.Order{ID: orderID}}, nil)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/orders/%s", orderID), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp model.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, orderID, resp.Order.ID)
}

func TestGetOrder_NotFound(t *testing.T) {
	orders := new(MockOrderService)
	router := newCheckoutTestRouter(new(MockCheckoutService), new(MockPaymentService), orders)

	orderID := uuid.New()
	orders.On("GetByID", mock.Anything, orderID).Return(nil, model.ErrOrderNotFound)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/orders/%s", orderID), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_InvalidID(t *testing.T) {
	router := newCheckoutTestRouter(new(MockCheckoutService), new(MockPaymentService), new(MockOrderService))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
