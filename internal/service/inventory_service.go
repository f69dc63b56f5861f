package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-core/internal/cache"
	"shop-core/internal/model"
	"shop-core/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// adjustStockAttempts bounds the optimistic-concurrency retry loop.
const adjustStockAttempts = 3

// inventoryService implements InventoryService.
type inventoryService struct {
	variantRepo   repository.VariantRepository
	inventoryRepo repository.InventoryRepository
	invalidator   cache.Invalidator
	logger        zerolog.Logger
}

// NewInventoryService creates a new inventory ledger service.
func NewInventoryService(
	variantRepo repository.VariantRepository,
	inventoryRepo repository.InventoryRepository,
	invalidator cache.Invalidator,
	logger zerolog.Logger,
) InventoryService {
	return &inventoryService{
		variantRepo:   variantRepo,
		inventoryRepo: inventoryRepo,
		invalidator:   invalidator,
		logger:        logger.With().Str("service", "inventory").Logger(),
	}
}

// LogTransaction records one stock change inside the caller's transaction.
func (s *inventoryService) LogTransaction(ctx context.Context, tx pgx.Tx, entry model.LedgerEntry) (*model.InventoryTransaction, error) {
	if !entry.Type.Valid() {
		return nil, model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("unknown transaction type %q", entry.Type))
	}

	variant, err := s.variantRepo.GetByIDTx(ctx, tx, entry.VariantID)
	if err != nil {
		return nil, err
	}

	// Stock is meaningless for unlimited variants; succeed without writing.
	if variant.IsUnlimited {
		s.logger.Debug().
			Str("variant_id", variant.ID.String()).
			Msg("skipping ledger entry for unlimited variant")
		return nil, nil
	}

	stockAfter := variant.Stock + entry.QuantityChange
	if stockAfter < 0 {
		s.logger.Info().
			Str("variant_id", variant.ID.String()).
			Int("stock", variant.Stock).
			Int("quantity_change", entry.QuantityChange).
			Msg("insufficient stock")
		return nil, model.ErrInsufficientStock
	}

	txn := &model.InventoryTransaction{
		ID:              uuid.New(),
		VariantID:       variant.ID,
		Type:            entry.Type,
		QuantityChange:  entry.QuantityChange,
		StockBefore:     variant.Stock,
		StockAfter:      stockAfter,
		OrderItemID:     entry.OrderItemID,
		UserID:          entry.UserID,
		Notes:           entry.Notes,
		ReferenceNumber: entry.ReferenceNumber,
		CreatedAt:       time.Now(),
	}

	if err := s.inventoryRepo.Insert(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := s.variantRepo.UpdateStockCAS(ctx, tx, variant.ID, stockAfter, variant.Version); err != nil {
		return nil, err
	}

	return txn, nil
}

// AdjustStock applies a manual stock change in its own transaction,
// reloading the variant and retrying solely on version conflict.
func (s *inventoryService) AdjustStock(ctx context.Context, req *model.AdjustStockRequest, userID *uuid.UUID) (*model.InventoryTransaction, error) {
	entry := model.LedgerEntry{
		VariantID:       req.VariantID,
		Type:            req.Type,
		QuantityChange:  req.QuantityChange,
		UserID:          userID,
		Notes:           req.Notes,
		ReferenceNumber: req.ReferenceNumber,
	}

	for attempt := 1; attempt <= adjustStockAttempts; attempt++ {
		txn, err := s.adjustOnce(ctx, entry)
		if err == nil {
			if txn != nil {
				s.invalidator.VariantStockChanged(ctx, req.VariantID)
			}
			return txn, nil
		}

		if !errors.Is(err, model.ErrVersionConflict) {
			return nil, err
		}

		s.logger.Debug().
			Str("variant_id", req.VariantID.String()).
			Int("attempt", attempt).
			Msg("stock adjustment conflict, retrying")
	}

	s.logger.Warn().
		Str("variant_id", req.VariantID.String()).
		Int("attempts", adjustStockAttempts).
		Msg("stock adjustment retries exhausted")

	return nil, model.ErrConcurrencyRetries
}

func (s *inventoryService) adjustOnce(ctx context.Context, entry model.LedgerEntry) (*model.InventoryTransaction, error) {
	tx, err := s.inventoryRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	txn, err := s.LogTransaction(ctx, tx, entry)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	return txn, nil
}

// GetCurrentStock returns the live stock, defaulting to 0 for a missing
// variant.
func (s *inventoryService) GetCurrentStock(ctx context.Context, variantID uuid.UUID) (int, error) {
	variant, err := s.variantRepo.GetByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, model.ErrVariantNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return variant.Stock, nil
}

// ListTransactions returns ledger entries for a variant, newest first.
func (s *inventoryService) ListTransactions(ctx context.Context, variantID uuid.UUID, limit, offset int) ([]model.InventoryTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.inventoryRepo.ListByVariant(ctx, variantID, limit, offset)
}
