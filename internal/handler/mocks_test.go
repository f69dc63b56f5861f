package handler

import (
	"context"

	"shop-core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// MockCheckoutService is a mock implementation of service.CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CheckoutFromCart(ctx context.Context, input *model.CheckoutInput) (*model.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockPaymentService is a mock implementation of service.PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) InitiatePayment(ctx context.Context, order *model.Order, callbackURL string) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, order, callbackURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockPaymentService) GetByAuthority(ctx context.Context, authority string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, authority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, authority, callbackStatus string) (*model.VerifyResult, error) {
	args := m.Called(ctx, authority, callbackStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerifyResult), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, req *model.WebhookRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockPaymentService) ExpirePending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target model.OrderStatus, expectedVersion int64) (*model.Order, error) {
	args := m.Called(ctx, orderID, target, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockInventoryService is a mock implementation of service.InventoryService.
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) LogTransaction(ctx context.Context, tx pgx.Tx, entry model.LedgerEntry) (*model.InventoryTransaction, error) {
	args := m.Called(ctx, tx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryService) AdjustStock(ctx context.Context, req *model.AdjustStockRequest, userID *uuid.UUID) (*model.InventoryTransaction, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryService) GetCurrentStock(ctx context.Context, variantID uuid.UUID) (int, error) {
	args := m.Called(ctx, variantID)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryService) ListTransactions(ctx context.Context, variantID uuid.UUID, limit, offset int) ([]model.InventoryTransaction, error) {
	args := m.Called(ctx, variantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryTransaction), args.Error(1)
}
