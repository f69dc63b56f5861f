package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-core/internal/cache"
	"shop-core/internal/model"
	"shop-core/internal/ratelimit"
	"shop-core/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	inventory   InventoryService
	discounts   DiscountService
	limiter     ratelimit.Limiter
	invalidator cache.Invalidator
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout orchestrator.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	inventory InventoryService,
	discounts DiscountService,
	limiter ratelimit.Limiter,
	invalidator cache.Invalidator,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		inventory:   inventory,
		discounts:   discounts,
		limiter:     limiter,
		invalidator: invalidator,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// CheckoutFromCart validates the cart, reserves stock through the ledger,
// applies the discount and persists the order in one atomic unit.
func (s *checkoutService) CheckoutFromCart(ctx context.Context, input *model.CheckoutInput) (*model.Order, error) {
	if input.IdempotencyKey == "" {
		return nil, model.ErrMissingIdemKey
	}

	// Idempotent replay: a previous checkout with this key already holds
	// the result, so return it with no further side effects.
	existing, err := s.orderRepo.GetByIdempotencyKey(ctx, input.UserID, input.IdempotencyKey)
	if err == nil {
		s.logger.Info().
			Str("order_id", existing.ID.String()).
			Str("user_id", input.UserID.String()).
			Msg("idempotent checkout replay")
		return existing, nil
	}
	if !errors.Is(err, model.ErrOrderNotFound) {
		return nil, err
	}

	allowed, err := s.limiter.Allow(ctx, input.UserID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check checkout rate limit: %w", err)
	}
	if !allowed {
		s.logger.Warn().
			Str("user_id", input.UserID.String()).
			Str("client_ip", input.ClientIP).
			Msg("checkout rate limit exceeded")
		return nil, model.ErrCheckoutLimited
	}

	items, err := s.cartRepo.GetCartItems(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, model.ErrCartEmpty
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, model.ErrInvalidQuantity
		}
	}

	shipping, err := s.cartRepo.GetShippingMethod(ctx, input.ShippingMethodID)
	if err != nil {
		return nil, err
	}

	address, err := s.cartRepo.GetUserAddress(ctx, input.UserAddressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != input.UserID {
		return nil, model.ErrAddressNotOwned
	}

	// Snapshot prices at checkout time. Amount and profit on each item are
	// frozen here and never recomputed from live catalog prices.
	var total int64
	for _, item := range items {
		total += item.Variant.SellingPrice * int64(item.Quantity)
	}

	// A failing discount code aborts the whole checkout rather than
	// silently dropping the discount: the amount charged must be the
	// amount the user agreed to.
	var discount *model.DiscountCode
	var discountAmount int64
	if input.DiscountCode != nil && *input.DiscountCode != "" {
		discount, discountAmount, err = s.discounts.ValidateAndGetDiscount(ctx, *input.DiscountCode, input.UserID, total)
		if err != nil {
			return nil, err
		}
	}

	order, err := s.persistOrder(ctx, input, items, shipping, discount, total, discountAmount)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		s.invalidator.VariantStockChanged(ctx, item.VariantID)
	}
	s.invalidator.CartCleared(ctx, input.UserID)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", input.UserID.String()).
		Int64("final_amount", order.FinalAmount).
		Int("items", len(items)).
		Msg("checkout completed")

	return order, nil
}

// persistOrder runs the atomic unit: order, items, ledger sales, discount
// usage and cart cleanup commit together or not at all.
func (s *checkoutService) persistOrder(
	ctx context.Context,
	input *model.CheckoutInput,
	items []model.CartItem,
	shipping *model.ShippingMethod,
	discount *model.DiscountCode,
	total, discountAmount int64,
) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	order := &model.Order{
		ID:               uuid.New(),
		UserID:           input.UserID,
		Status:           model.OrderStatusPending,
		TotalAmount:      total,
		ShippingCost:     shipping.Cost,
		DiscountAmount:   discountAmount,
		FinalAmount:      total + shipping.Cost - discountAmount,
		IsPaid:           false,
		IdempotencyKey:   input.IdempotencyKey,
		ShippingMethodID: input.ShippingMethodID,
		UserAddressID:    input.UserAddressID,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	orderItems := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, model.OrderItem{
			ID:            uuid.New(),
			OrderID:       order.ID,
			VariantID:     item.VariantID,
			Quantity:      item.Quantity,
			SellingPrice:  item.Variant.SellingPrice,
			PurchasePrice: item.Variant.PurchasePrice,
			Amount:        item.Variant.SellingPrice * int64(item.Quantity),
			Profit:        (item.Variant.SellingPrice - item.Variant.PurchasePrice) * int64(item.Quantity),
		})
	}

	if err := s.orderRepo.CreateItems(ctx, tx, orderItems); err != nil {
		return nil, err
	}

	userID := input.UserID
	for i := range orderItems {
		_, err := s.inventory.LogTransaction(ctx, tx, model.LedgerEntry{
			VariantID:      orderItems[i].VariantID,
			Type:           model.TxTypeSale,
			QuantityChange: -orderItems[i].Quantity,
			OrderItemID:    &orderItems[i].ID,
			UserID:         &userID,
			Notes:          "sale at checkout",
		})
		if err != nil {
			return nil, err
		}
	}

	if discount != nil {
		if err := s.discounts.ApplyToOrder(ctx, tx, discount.ID, input.UserID, order.ID); err != nil {
			return nil, err
		}
	}

	if err := s.cartRepo.ClearCart(ctx, tx, input.UserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	return order, nil
}
