package repository

import (
	"context"
	"time"

	"shop-core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VariantRepository defines variant reads and the stock compare-and-swap.
type VariantRepository interface {
	// GetByID retrieves a variant by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Variant, error)

	// GetByIDTx retrieves a variant inside the provided transaction.
	GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Variant, error)

	// UpdateStockCAS sets the stock of a variant if and only if its version
	// still matches expectedVersion. Returns model.ErrVersionConflict when
	// the row was modified concurrently.
	UpdateStockCAS(ctx context.Context, tx pgx.Tx, id uuid.UUID, newStock int, expectedVersion int64) error
}

// InventoryRepository persists the append-only stock ledger.
type InventoryRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Insert appends one immutable ledger entry within the transaction.
	Insert(ctx context.Context, tx pgx.Tx, txn *model.InventoryTransaction) error

	// ListByVariant returns ledger entries for a variant, newest first.
	ListByVariant(ctx context.Context, variantID uuid.UUID, limit, offset int) ([]model.InventoryTransaction, error)

	// SumQuantityChanges returns the sum of all recorded quantity changes
	// for a variant; used by audit reconciliation.
	SumQuantityChanges(ctx context.Context, variantID uuid.UUID) (int, error)
}

// OrderRepository defines order persistence.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new order within the provided transaction. Returns
	// model.ErrVersionConflict if (userID, idempotencyKey) already exists.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateItems inserts the order's line items within the transaction.
	CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order and its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetByIdempotencyKey returns the order previously created for
	// (userID, key), or model.ErrOrderNotFound.
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error)

	// UpdateStatusCAS moves the order to the target status if its version
	// still matches expectedVersion.
	UpdateStatusCAS(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, expectedVersion int64) error

	// MarkPaid flips isPaid and advances the status within the transaction.
	MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// DiscountRepository defines discount codes and their usage lifecycle.
type DiscountRepository interface {
	// GetByCode retrieves a discount code with its restrictions.
	GetByCode(ctx context.Context, code string) (*model.DiscountCode, error)

	// CountConfirmedUsages counts confirmed usages of the code by the user.
	CountConfirmedUsages(ctx context.Context, discountID, userID uuid.UUID) (int, error)

	// IncrementUsage bumps usedCount within the transaction, guarded by the
	// usage limit. Returns model.ErrDiscountUsageLimit when the limit would
	// be exceeded.
	IncrementUsage(ctx context.Context, tx pgx.Tx, discountID uuid.UUID) error

	// InsertUsage records a usage row within the transaction.
	InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.DiscountUsage) error

	// ConfirmUsage marks the usage row for the order as confirmed.
	ConfirmUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// CancelUsage deletes the usage row for the order and decrements
	// usedCount, both inside the transaction.
	CancelUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// DecrementUsage decrements usedCount outside any order
	// transaction. Never drives the counter below zero.
	DecrementUsage(ctx context.Context, discountID uuid.UUID) error
}

// PaymentRepository defines payment transaction persistence.
type PaymentRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new pending payment transaction.
	Create(ctx context.Context, pt *model.PaymentTransaction) error

	// GetByAuthority retrieves a payment transaction by its authority.
	GetByAuthority(ctx context.Context, authority string) (*model.PaymentTransaction, error)

	// GetByAuthorityTx retrieves a payment transaction inside the
	// transaction, after taking an advisory lock on the authority so that
	// concurrent verification and webhook delivery serialise.
	GetByAuthorityTx(ctx context.Context, tx pgx.Tx, authority string) (*model.PaymentTransaction, error)

	// MarkSuccess moves a pending transaction to success and stamps the
	// gateway reference. No-op (returns ErrVersionConflict) if the row is
	// no longer pending.
	MarkSuccess(ctx context.Context, tx pgx.Tx, authority, refID string) error

	// MarkFailed moves a pending transaction to failed with the gateway's
	// message.
	MarkFailed(ctx context.Context, tx pgx.Tx, authority, message string) error

	// ExpireOlderThan marks pending transactions created before the cutoff
	// as expired. Returns the number of rows swept.
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartRepository reads the cart and shipping collaborator state.
type CartRepository interface {
	// GetCartItems returns the user's cart lines joined with live variant data.
	GetCartItems(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)

	// ClearCart removes the user's cart lines within the transaction.
	ClearCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error

	// GetShippingMethod retrieves an active shipping method.
	GetShippingMethod(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error)

	// GetUserAddress retrieves an address for ownership validation.
	GetUserAddress(ctx context.Context, id uuid.UUID) (*model.UserAddress, error)
}
