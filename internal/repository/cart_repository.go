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

// cartRepository implements CartRepository using PostgreSQL. Cart, shipping
// and address rows are owned by their own subsystems; this is the read-side
// boundary the checkout consumes.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// GetCartItems returns the user's cart lines joined with live variant data.
func (r *cartRepository) GetCartItems(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.variant_id, c.quantity, c.created_at,
		       v.id, v.sku, v.purchase_price, v.selling_price, v.stock,
		       v.is_unlimited, v.version, v.created_at, v.updated_at
		FROM cart_items c
		JOIN variants v ON v.id = c.variant_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.VariantID, &item.Quantity, &item.CreatedAt,
			&item.Variant.ID, &item.Variant.SKU, &item.Variant.PurchasePrice,
			&item.Variant.SellingPrice, &item.Variant.Stock, &item.Variant.IsUnlimited,
			&item.Variant.Version, &item.Variant.CreatedAt, &item.Variant.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return items, nil
}

// ClearCart removes the user's cart lines within the transaction.
func (r *cartRepository) ClearCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetShippingMethod retrieves an active shipping method.
func (r *cartRepository) GetShippingMethod(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error) {
	query := `SELECT id, name, cost, is_active FROM shipping_methods WHERE id = $1 AND is_active = TRUE`

	var m model.ShippingMethod
	err := r.pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.Cost, &m.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrShippingMethodNotFound
		}
		return nil, fmt.Errorf("failed to get shipping method: %w", err)
	}

	return &m, nil
}

// GetUserAddress retrieves an address for ownership validation.
func (r *cartRepository) GetUserAddress(ctx context.Context, id uuid.UUID) (*model.UserAddress, error) {
	query := `SELECT id, user_id FROM user_addresses WHERE id = $1`

	var a model.UserAddress
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAddressNotOwned
		}
		return nil, fmt.Errorf("failed to get user address: %w", err)
	}

	return &a, nil
}
