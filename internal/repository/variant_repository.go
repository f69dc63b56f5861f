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

// variantRepository implements VariantRepository using PostgreSQL.
type variantRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVariantRepository creates a new PostgreSQL-backed variant repository.
func NewVariantRepository(pool *pgxpool.Pool, logger zerolog.Logger) VariantRepository {
	return &variantRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "variant").Logger(),
	}
}

const variantColumns = `id, sku, purchase_price, selling_price, stock, is_unlimited, version, created_at, updated_at`

func scanVariant(row pgx.Row) (*model.Variant, error) {
	var v model.Variant
	err := row.Scan(
		&v.ID, &v.SKU, &v.PurchasePrice, &v.SellingPrice,
		&v.Stock, &v.IsUnlimited, &v.Version, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to scan variant: %w", err)
	}
	return &v, nil
}

// GetByID retrieves a variant by its ID.
func (r *variantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`
	return scanVariant(r.pool.QueryRow(ctx, query, id))
}

// GetByIDTx retrieves a variant inside the provided transaction.
func (r *variantRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`
	return scanVariant(tx.QueryRow(ctx, query, id))
}

// UpdateStockCAS sets the stock of a variant guarded by the version token.
// The store rejects a write based on a stale read atomically: zero rows
// affected means the version no longer matches.
func (r *variantRepository) UpdateStockCAS(ctx context.Context, tx pgx.Tx, id uuid.UUID, newStock int, expectedVersion int64) error {
	query := `
		UPDATE variants
		SET stock = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`

	ct, err := tx.Exec(ctx, query, id, newStock, expectedVersion)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("variant_id", id.String()).
			Msg("failed to update variant stock")
		return fmt.Errorf("failed to update variant stock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		r.logger.Debug().
			Str("variant_id", id.String()).
			Int64("expected_version", expectedVersion).
			Msg("variant version conflict")
		return model.ErrVersionConflict
	}

	return nil
}
