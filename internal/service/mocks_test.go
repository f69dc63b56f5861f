package service

import (
	"context"
	"time"

	"shop-core/internal/gateway"
	"shop-core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// newMockTx returns a transaction mock that tolerates the deferred
// rollback-after-commit pattern the services use.
func newMockTx() *MockTx {
	tx := new(MockTx)
	tx.On("Rollback", mock.Anything).Return(pgx.ErrTxClosed).Maybe()
	return tx
}

// MockVariantRepository is a mock implementation of VariantRepository.
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Variant), args.Error(1)
}

func (m *MockVariantRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Variant, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Variant), args.Error(1)
}

func (m *MockVariantRepository) UpdateStockCAS(ctx context.Context, tx pgx.Tx, id uuid.UUID, newStock int, expectedVersion int64) error {
	args := m.Called(ctx, tx, id, newStock, expectedVersion)
	return args.Error(0)
}

// MockInventoryRepository is a mock implementation of InventoryRepository.
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInventoryRepository) Insert(ctx context.Context, tx pgx.Tx, txn *model.InventoryTransaction) error {
	args := m.Called(ctx, tx, txn)
	return args.Error(0)
}

func (m *MockInventoryRepository) ListByVariant(ctx context.Context, variantID uuid.UUID, limit, offset int) ([]model.InventoryTransaction, error) {
	args := m.Called(ctx, variantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryRepository) SumQuantityChanges(ctx context.Context, variantID uuid.UUID) (int, error) {
	args := m.Called(ctx, variantID)
	return args.Int(0), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var items []model.OrderItem
	if args.Get(1) != nil {
		items = args.Get(1).([]model.OrderItem)
	}
	return args.Get(0).(*model.Order), items, args.Error(2)
}

func (m *MockOrderRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatusCAS(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, expectedVersion int64) error {
	args := m.Called(ctx, tx, id, status, expectedVersion)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockDiscountRepository is a mock implementation of DiscountRepository.
type MockDiscountRepository struct {
	mock.Mock
}

func (m *MockDiscountRepository) GetByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DiscountCode), args.Error(1)
}

func (m *MockDiscountRepository) CountConfirmedUsages(ctx context.Context, discountID, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, discountID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockDiscountRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, discountID uuid.UUID) error {
	args := m.Called(ctx, tx, discountID)
	return args.Error(0)
}

func (m *MockDiscountRepository) InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.DiscountUsage) error {
	args := m.Called(ctx, tx, usage)
	return args.Error(0)
}

func (m *MockDiscountRepository) ConfirmUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, orderID)
	return args.Error(0)
}

func (m *MockDiscountRepository) CancelUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, orderID)
	return args.Error(0)
}

func (m *MockDiscountRepository) DecrementUsage(ctx context.Context, discountID uuid.UUID) error {
	args := m.Called(ctx, discountID)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, pt *model.PaymentTransaction) error {
	args := m.Called(ctx, pt)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByAuthority(ctx context.Context, authority string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, authority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentRepository) GetByAuthorityTx(ctx context.Context, tx pgx.Tx, authority string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, tx, authority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentRepository) MarkSuccess(ctx context.Context, tx pgx.Tx, authority, refID string) error {
	args := m.Called(ctx, tx, authority, refID)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, tx pgx.Tx, authority, message string) error {
	args := m.Called(ctx, tx, authority, message)
	return args.Error(0)
}

func (m *MockPaymentRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetCartItems(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartRepository) ClearCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

func (m *MockCartRepository) GetShippingMethod(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShippingMethod), args.Error(1)
}

func (m *MockCartRepository) GetUserAddress(ctx context.Context, id uuid.UUID) (*model.UserAddress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserAddress), args.Error(1)
}

// MockInventoryService is a mock implementation of InventoryService.
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

// MockDiscountService is a mock implementation of DiscountService.
type MockDiscountService struct {
	mock.Mock
}

func (m *MockDiscountService) ValidateAndGetDiscount(ctx context.Context, code string, userID uuid.UUID, orderTotal int64) (*model.DiscountCode, int64, error) {
	args := m.Called(ctx, code, userID, orderTotal)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*model.DiscountCode), args.Get(1).(int64), args.Error(2)
}

func (m *MockDiscountService) ApplyToOrder(ctx context.Context, tx pgx.Tx, discountID, userID, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, discountID, userID, orderID)
	return args.Error(0)
}

func (m *MockDiscountService) ConfirmUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, orderID)
	return args.Error(0)
}

func (m *MockDiscountService) CancelUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, orderID)
	return args.Error(0)
}

func (m *MockDiscountService) RollbackUsage(ctx context.Context, discountID uuid.UUID) error {
	args := m.Called(ctx, discountID)
	return args.Error(0)
}

// MockLimiter is a mock implementation of ratelimit.Limiter.
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	args := m.Called(ctx, subject)
	return args.Bool(0), args.Error(1)
}

// MockGateway is a mock implementation of gateway.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Request(ctx context.Context, amount int64, description, callbackURL string) (*gateway.RequestResult, error) {
	args := m.Called(ctx, amount, description, callbackURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RequestResult), args.Error(1)
}

func (m *MockGateway) Verify(ctx context.Context, authority string, amount int64) (*gateway.VerifyOutcome, error) {
	args := m.Called(ctx, authority, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.VerifyOutcome), args.Error(1)
}

func (m *MockGateway) Name() string {
	return "test-gateway"
}
