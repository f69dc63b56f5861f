package service

import (
	"context"

	"shop-core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InventoryService is the single path through which variant stock mutates.
type InventoryService interface {
	// LogTransaction records one stock change inside the caller's
	// transaction: the immutable ledger row and the new stock value are
	// written atomically. Unlimited variants are a successful no-op that
	// writes nothing. Returns model.ErrInsufficientStock when the change
	// would drive a limited variant negative, leaving stock unchanged.
	LogTransaction(ctx context.Context, tx pgx.Tx, entry model.LedgerEntry) (*model.InventoryTransaction, error)

	// AdjustStock applies a manual stock change in its own transaction,
	// retrying a bounded number of times on version conflict. Exhausting
	// the retries surfaces model.ErrConcurrencyRetries.
	AdjustStock(ctx context.Context, req *model.AdjustStockRequest, userID *uuid.UUID) (*model.InventoryTransaction, error)

	// GetCurrentStock returns the live stock, or 0 for a missing variant.
	GetCurrentStock(ctx context.Context, variantID uuid.UUID) (int, error)

	// ListTransactions returns ledger entries for a variant, newest first.
	ListTransactions(ctx context.Context, variantID uuid.UUID, limit, offset int) ([]model.InventoryTransaction, error)
}

// DiscountService evaluates discount codes and manages their usage lifecycle.
type DiscountService interface {
	// ValidateAndGetDiscount runs the ordered eligibility checks and, on
	// success, returns the code and the discount amount for the total.
	ValidateAndGetDiscount(ctx context.Context, code string, userID uuid.UUID, orderTotal int64) (*model.DiscountCode, int64, error)

	// ApplyToOrder increments the usage counter and records the usage row
	// inside the order's transaction, so a reserved discount can never
	// exist without a corresponding order.
	ApplyToOrder(ctx context.Context, tx pgx.Tx, discountID, userID, orderID uuid.UUID) error

	// ConfirmUsage marks the order's usage confirmed on payment success.
	ConfirmUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// CancelUsage removes the usage row and decrements the counter when an
	// order is deleted or cancelled.
	CancelUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// RollbackUsage decrements the counter for an increment
	// that was committed without its order.
	RollbackUsage(ctx context.Context, discountID uuid.UUID) error
}

// CheckoutService turns a cart into a pending-payment order.
type CheckoutService interface {
	// CheckoutFromCart validates the cart, reserves stock through the
	// ledger, applies the discount and persists the order in one atomic
	// unit. A replayed (userID, idempotencyKey) returns the stored order
	// with no further side effects.
	CheckoutFromCart(ctx context.Context, input *model.CheckoutInput) (*model.Order, error)
}

// PaymentService drives the payment state machine.
type PaymentService interface {
	// InitiatePayment opens a payment attempt with the gateway and
	// persists a pending transaction keyed by the gateway authority. A
	// gateway failure persists nothing. Returns model.ErrOrderAlreadyPaid
	// for an order that has already settled.
	InitiatePayment(ctx context.Context, order *model.Order, callbackURL string) (*model.CheckoutResponse, error)

	// GetByAuthority returns the stored payment attempt for an authority.
	GetByAuthority(ctx context.Context, authority string) (*model.PaymentTransaction, error)

	// VerifyPayment reconciles the synchronous gateway callback. Statuses
	// other than the canonical success token fail closed. Verifying an
	// already-successful authority replays the stored result without side
	// effects.
	VerifyPayment(ctx context.Context, authority, callbackStatus string) (*model.VerifyResult, error)

	// HandleWebhook reconciles an asynchronous gateway callback through
	// the same state machine. Unknown authorities and post-success
	// arrivals are logged and dropped, honouring at-least-once delivery.
	HandleWebhook(ctx context.Context, req *model.WebhookRequest) error

	// ExpirePending sweeps pending transactions older than the configured
	// window to expired, each sweep batch in its own transaction.
	ExpirePending(ctx context.Context) (int64, error)
}

// OrderService covers order reads and admin status transitions.
type OrderService interface {
	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// UpdateStatus moves an order to the target status under the version
	// token. Cancelling an unpaid order returns its stock through the
	// ledger and cancels any discount usage.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target model.OrderStatus, expectedVersion int64) (*model.Order, error)
}
