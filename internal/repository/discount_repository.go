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

// discountRepository implements DiscountRepository using PostgreSQL.
type discountRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDiscountRepository creates a new PostgreSQL-backed discount repository.
func NewDiscountRepository(pool *pgxpool.Pool, logger zerolog.Logger) DiscountRepository {
	return &discountRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "discount").Logger(),
	}
}

// GetByCode retrieves a discount code with its restrictions.
func (r *discountRepository) GetByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	query := `
		SELECT id, code, percentage, max_discount_amount, min_order_amount,
		       usage_limit, used_count, is_active, expires_at
		FROM discount_codes
		WHERE code = $1
	`

	var d model.DiscountCode
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&d.ID, &d.Code, &d.Percentage, &d.MaxDiscountAmount,
		&d.MinOrderAmount, &d.UsageLimit, &d.UsedCount, &d.IsActive, &d.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, discount_id, kind, target_id, usage_cap
		FROM discount_restrictions
		WHERE discount_id = $1
	`, d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discount restrictions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res model.DiscountRestriction
		if err := rows.Scan(&res.ID, &res.DiscountID, &res.Kind, &res.TargetID, &res.UsageCap); err != nil {
			return nil, fmt.Errorf("failed to scan discount restriction: %w", err)
		}
		d.Restrictions = append(d.Restrictions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discount restrictions: %w", err)
	}

	return &d, nil
}

// CountConfirmedUsages counts confirmed usages of the code by the user.
func (r *discountRepository) CountConfirmedUsages(ctx context.Context, discountID, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM discount_usages
		WHERE discount_id = $1 AND user_id = $2 AND confirmed = TRUE
	`

	var n int
	if err := r.pool.QueryRow(ctx, query, discountID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count discount usages: %w", err)
	}

	return n, nil
}

// IncrementUsage bumps usedCount within the transaction. The usage limit is
// re-checked in the WHERE clause so two concurrent checkouts cannot both
// consume the last slot.
func (r *discountRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, discountID uuid.UUID) error {
	query := `
		UPDATE discount_codes
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	ct, err := tx.Exec(ctx, query, discountID)
	if err != nil {
		r.logger.Error().Err(err).Str("discount_id", discountID.String()).Msg("failed to increment discount usage")
		return fmt.Errorf("failed to increment discount usage: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return model.ErrDiscountUsageLimit
	}

	return nil
}

// InsertUsage records a usage row within the transaction.
func (r *discountRepository) InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.DiscountUsage) error {
	query := `
		INSERT INTO discount_usages (id, discount_id, user_id, order_id, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		usage.ID, usage.DiscountID, usage.UserID, usage.OrderID, usage.Confirmed, usage.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", usage.OrderID.String()).Msg("failed to insert discount usage")
		return fmt.Errorf("failed to insert discount usage: %w", err)
	}

	return nil
}

// ConfirmUsage marks the usage row for the order as confirmed.
func (r *discountRepository) ConfirmUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	query := `UPDATE discount_usages SET confirmed = TRUE WHERE order_id = $1`

	if _, err := tx.Exec(ctx, query, orderID); err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to confirm discount usage")
		return fmt.Errorf("failed to confirm discount usage: %w", err)
	}

	return nil
}

// CancelUsage deletes the usage row for the order and decrements usedCount,
// both inside the transaction. Removing zero rows decrements nothing.
func (r *discountRepository) CancelUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	query := `
		WITH removed AS (
			DELETE FROM discount_usages WHERE order_id = $1 RETURNING discount_id
		)
		UPDATE discount_codes
		SET used_count = GREATEST(used_count - 1, 0)
		WHERE id IN (SELECT discount_id FROM removed)
	`

	if _, err := tx.Exec(ctx, query, orderID); err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to cancel discount usage")
		return fmt.Errorf("failed to cancel discount usage: %w", err)
	}

	return nil
}

// DecrementUsage decrements usedCount outside any order
// transaction, for checkout aborts that happened after the increment.
func (r *discountRepository) DecrementUsage(ctx context.Context, discountID uuid.UUID) error {
	query := `
		UPDATE discount_codes
		SET used_count = GREATEST(used_count - 1, 0)
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, discountID); err != nil {
		r.logger.Error().Err(err).Str("discount_id", discountID.String()).Msg("failed to decrement discount usage")
		return fmt.Errorf("failed to decrement discount usage: %w", err)
	}

	return nil
}
