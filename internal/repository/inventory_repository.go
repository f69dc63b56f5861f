package repository

import (
	"context"
	"fmt"

	"shop-core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// inventoryRepository implements InventoryRepository using PostgreSQL.
// Ledger rows are insert-only; there are no update or delete paths.
type inventoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewInventoryRepository creates a new PostgreSQL-backed inventory repository.
func NewInventoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) InventoryRepository {
	return &inventoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "inventory").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *inventoryRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Insert appends one immutable ledger entry within the transaction.
func (r *inventoryRepository) Insert(ctx context.Context, tx pgx.Tx, txn *model.InventoryTransaction) error {
	query := `
		INSERT INTO inventory_transactions
			(id, variant_id, type, quantity_change, stock_before, stock_after,
			 order_item_id, user_id, notes, reference_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := tx.Exec(ctx, query,
		txn.ID, txn.VariantID, txn.Type, txn.QuantityChange,
		txn.StockBefore, txn.StockAfter, txn.OrderItemID, txn.UserID,
		txn.Notes, txn.ReferenceNumber, txn.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("variant_id", txn.VariantID.String()).
			Str("type", string(txn.Type)).
			Msg("failed to insert inventory transaction")
		return fmt.Errorf("failed to insert inventory transaction: %w", err)
	}

	return nil
}

// ListByVariant returns ledger entries for a variant, newest first.
func (r *inventoryRepository) ListByVariant(ctx context.Context, variantID uuid.UUID, limit, offset int) ([]model.InventoryTransaction, error) {
	query := `
		SELECT id, variant_id, type, quantity_change, stock_before, stock_after,
		       order_item_id, user_id, notes, reference_number, created_at
		FROM inventory_transactions
		WHERE variant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, variantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.InventoryTransaction
	for rows.Next() {
		var t model.InventoryTransaction
		if err := rows.Scan(
			&t.ID, &t.VariantID, &t.Type, &t.QuantityChange,
			&t.StockBefore, &t.StockAfter, &t.OrderItemID, &t.UserID,
			&t.Notes, &t.ReferenceNumber, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory transaction: %w", err)
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory transactions: %w", err)
	}

	return txns, nil
}

// SumQuantityChanges returns the sum of all recorded quantity changes for a
// variant. For a limited variant this must always equal the live stock.
func (r *inventoryRepository) SumQuantityChanges(ctx context.Context, variantID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity_change), 0)
		FROM inventory_transactions
		WHERE variant_id = $1
	`

	var sum int
	if err := r.pool.QueryRow(ctx, query, variantID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum inventory transactions: %w", err)
	}

	return sum, nil
}
