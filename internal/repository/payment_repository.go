package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"shop-core/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// paymentRepository implements PaymentRepository using PostgreSQL.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

const paymentColumns = `id, order_id, authority, amount, status, ref_id,
	gateway_name, gateway_message, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.PaymentTransaction, error) {
	var p model.PaymentTransaction
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Authority, &p.Amount, &p.Status, &p.RefID,
		&p.GatewayName, &p.GatewayMessage, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
	}
	return &p, nil
}

// BeginTx starts a new database transaction.
func (r *paymentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new pending payment transaction.
func (r *paymentRepository) Create(ctx context.Context, pt *model.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions
			(id, order_id, authority, amount, status, ref_id, gateway_name,
			 gateway_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		pt.ID, pt.OrderID, pt.Authority, pt.Amount, pt.Status, pt.RefID,
		pt.GatewayName, pt.GatewayMessage, pt.CreatedAt, pt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrVersionConflict
		}
		r.logger.Error().Err(err).Str("authority", pt.Authority).Msg("failed to create payment transaction")
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

// GetByAuthority retrieves a payment transaction by its authority.
func (r *paymentRepository) GetByAuthority(ctx context.Context, authority string) (*model.PaymentTransaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE authority = $1`
	return scanPayment(r.pool.QueryRow(ctx, query, authority))
}

// GetByAuthorityTx retrieves a payment transaction inside the transaction
// after taking a transaction-scoped advisory lock on the authority, so a
// synchronous verification and an asynchronous webhook for the same attempt
// serialise instead of racing the state machine.
func (r *paymentRepository) GetByAuthorityTx(ctx context.Context, tx pgx.Tx, authority string) (*model.PaymentTransaction, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryKey(authority)); err != nil {
		return nil, fmt.Errorf("failed to take advisory lock: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE authority = $1`
	return scanPayment(tx.QueryRow(ctx, query, authority))
}

// MarkSuccess moves a pending transaction to success and stamps the
// gateway reference. The status guard makes a replay a no-op at the store.
func (r *paymentRepository) MarkSuccess(ctx context.Context, tx pgx.Tx, authority, refID string) error {
	query := `
		UPDATE payment_transactions
		SET status = $2, ref_id = $3, updated_at = NOW()
		WHERE authority = $1 AND status = $4
	`

	ct, err := tx.Exec(ctx, query, authority, model.PaymentStatusSuccess, refID, model.PaymentStatusPending)
	if err != nil {
		r.logger.Error().Err(err).Str("authority", authority).Msg("failed to mark payment success")
		return fmt.Errorf("failed to mark payment success: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	return nil
}

// MarkFailed moves a pending transaction to failed with the gateway's message.
func (r *paymentRepository) MarkFailed(ctx context.Context, tx pgx.Tx, authority, message string) error {
	query := `
		UPDATE payment_transactions
		SET status = $2, gateway_message = $3, updated_at = NOW()
		WHERE authority = $1 AND status = $4
	`

	ct, err := tx.Exec(ctx, query, authority, model.PaymentStatusFailed, message, model.PaymentStatusPending)
	if err != nil {
		r.logger.Error().Err(err).Str("authority", authority).Msg("failed to mark payment failed")
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	return nil
}

// ExpireOlderThan marks pending transactions created before the cutoff as
// expired. Runs as a single statement so each sweep batch is atomic.
func (r *paymentRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE payment_transactions
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3
	`

	ct, err := r.pool.Exec(ctx, query, model.PaymentStatusExpired, model.PaymentStatusPending, cutoff)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to expire pending payments")
		return 0, fmt.Errorf("failed to expire pending payments: %w", err)
	}

	return ct.RowsAffected(), nil
}

// advisoryKey hashes an authority into the bigint key space used by
// pg_advisory_xact_lock.
func advisoryKey(authority string) int64 {
	h := fnv.New64a()
	h.Write([]byte(authority))
	return int64(h.Sum64())
}
