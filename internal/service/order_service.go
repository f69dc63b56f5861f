package service

import (
	"context"
	"fmt"

	"shop-core/internal/cache"
	"shop-core/internal/model"
	"shop-core/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	inventory   InventoryService
	discounts   DiscountService
	invalidator cache.Invalidator
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	inventory InventoryService,
	discounts DiscountService,
	invalidator cache.Invalidator,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		inventory:   inventory,
		discounts:   discounts,
		invalidator: invalidator,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// GetByID retrieves an order with its items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// UpdateStatus moves an order to the target status under the version token.
// Cancelling an unpaid order returns its stock through the ledger and
// cancels any discount usage, all inside the same transaction.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target model.OrderStatus, expectedVersion int64) (*model.Order, error) {
	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(target) {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("from", string(order.Status)).
			Str("to", string(target)).
			Msg("rejected order status transition")
		return nil, model.ErrInvalidOrderMove
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.orderRepo.UpdateStatusCAS(ctx, tx, orderID, target, expectedVersion); err != nil {
		return nil, err
	}

	if target == model.OrderStatusCancelled && !order.IsPaid {
		userID := order.UserID
		for i := range items {
			_, err := s.inventory.LogTransaction(ctx, tx, model.LedgerEntry{
				VariantID:      items[i].VariantID,
				Type:           model.TxTypeReturn,
				QuantityChange: items[i].Quantity,
				OrderItemID:    &items[i].ID,
				UserID:         &userID,
				Notes:          "return on order cancellation",
			})
			if err != nil {
				return nil, err
			}
		}

		if err := s.discounts.CancelUsage(ctx, tx, orderID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order status update: %w", err)
	}

	s.invalidator.OrderChanged(ctx, orderID)
	if target == model.OrderStatusCancelled && !order.IsPaid {
		for _, item := range items {
			s.invalidator.VariantStockChanged(ctx, item.VariantID)
		}
	}

	updated, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(order.Status)).
		Str("to", string(target)).
		Msg("order status updated")

	return updated, nil
}
