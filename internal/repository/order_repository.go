package repository

import (
	"context"
	"errors"
	"fmt"

	"shop-core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements OrderRepository using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, user_id, status, total_amount, shipping_cost, discount_amount,
	final_amount, is_paid, idempotency_key, shipping_method_id, user_address_id,
	version, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.ShippingCost,
		&o.DiscountAmount, &o.FinalAmount, &o.IsPaid, &o.IdempotencyKey,
		&o.ShippingMethodID, &o.UserAddressID, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new order within the provided transaction. The unique
// (user_id, idempotency_key) index turns a concurrent duplicate checkout
// into a version conflict instead of a second order.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders
			(id, user_id, status, total_amount, shipping_cost, discount_amount,
			 final_amount, is_paid, idempotency_key, shipping_method_id,
			 user_address_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.Status, order.TotalAmount,
		order.ShippingCost, order.DiscountAmount, order.FinalAmount,
		order.IsPaid, order.IdempotencyKey, order.ShippingMethodID,
		order.UserAddressID, order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug().
				Str("user_id", order.UserID.String()).
				Msg("duplicate idempotency key on order insert")
			return model.ErrVersionConflict
		}
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// CreateItems inserts the order's line items within the transaction.
func (r *orderRepository) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	query := `
		INSERT INTO order_items
			(id, order_id, variant_id, quantity, selling_price, purchase_price, amount, profit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, item := range items {
		_, err := tx.Exec(ctx, query,
			item.ID, item.OrderID, item.VariantID, item.Quantity,
			item.SellingPrice, item.PurchasePrice, item.Amount, item.Profit,
		)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", item.OrderID.String()).
				Str("variant_id", item.VariantID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an order and its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, variant_id, quantity, selling_price, purchase_price, amount, profit
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.VariantID, &item.Quantity,
			&item.SellingPrice, &item.PurchasePrice, &item.Amount, &item.Profit,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return order, items, nil
}

// GetByIdempotencyKey returns the order previously created for (userID, key).
func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`
	return scanOrder(r.pool.QueryRow(ctx, query, userID, key))
}

// UpdateStatusCAS moves the order to the target status guarded by the
// version token.
func (r *orderRepository) UpdateStatusCAS(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, expectedVersion int64) error {
	query := `
		UPDATE orders
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`

	ct, err := tx.Exec(ctx, query, id, status, expectedVersion)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	return nil
}

// MarkPaid flips isPaid and advances the status within the transaction.
// Guarded by is_paid = FALSE so a replayed verification cannot re-apply
// side effects.
func (r *orderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE orders
		SET is_paid = TRUE, status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND is_paid = FALSE
	`

	ct, err := tx.Exec(ctx, query, id, model.OrderStatusPaid)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	return nil
}
