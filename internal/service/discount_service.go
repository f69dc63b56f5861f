package service

import (
	"context"
	"time"

	"shop-core/internal/model"
	"shop-core/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// defaultPerUserCap applies when a code carries no explicit user
// restriction: each user may use it once.
const defaultPerUserCap = 1

// discountService implements DiscountService.
type discountService struct {
	discountRepo repository.DiscountRepository
	logger       zerolog.Logger
}

// NewDiscountService creates a new discount validator.
func NewDiscountService(discountRepo repository.DiscountRepository, logger zerolog.Logger) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		logger:       logger.With().Str("service", "discount").Logger(),
	}
}

// ValidateAndGetDiscount runs the ordered eligibility checks, returning the
// first failing reason.
func (s *discountService) ValidateAndGetDiscount(ctx context.Context, code string, userID uuid.UUID, orderTotal int64) (*model.DiscountCode, int64, error) {
	discount, err := s.discountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}

	if !discount.IsActive {
		return nil, 0, model.ErrDiscountInactive
	}

	if discount.ExpiresAt != nil && discount.ExpiresAt.Before(time.Now()) {
		return nil, 0, model.ErrDiscountExpired
	}

	if discount.UsageLimit != nil && discount.UsedCount >= *discount.UsageLimit {
		return nil, 0, model.ErrDiscountUsageLimit
	}

	if orderTotal < discount.MinOrderAmount {
		return nil, 0, model.ErrDiscountMinOrder
	}

	userCap := defaultPerUserCap
	for _, res := range discount.Restrictions {
		switch res.Kind {
		case model.RestrictionUser:
			if res.TargetID != userID {
				return nil, 0, model.ErrDiscountWrongUser
			}
			if res.UsageCap > 0 {
				userCap = res.UsageCap
			}
		case model.RestrictionCategory:
			// Category eligibility is not evaluated against cart contents
			// yet, so category-restricted codes never apply.
			return nil, 0, model.ErrDiscountCategory
		}
	}

	used, err := s.discountRepo.CountConfirmedUsages(ctx, discount.ID, userID)
	if err != nil {
		return nil, 0, err
	}
	if used >= userCap {
		return nil, 0, model.ErrDiscountUserCap
	}

	amount := discount.Amount(orderTotal)

	s.logger.Debug().
		Str("code", discount.Code).
		Str("user_id", userID.String()).
		Int64("order_total", orderTotal).
		Int64("discount_amount", amount).
		Msg("discount code validated")

	return discount, amount, nil
}

// ApplyToOrder increments the usage counter and records the usage row
// inside the order's transaction.
func (s *discountService) ApplyToOrder(ctx context.Context, tx pgx.Tx, discountID, userID, orderID uuid.UUID) error {
	if err := s.discountRepo.IncrementUsage(ctx, tx, discountID); err != nil {
		return err
	}

	usage := &model.DiscountUsage{
		ID:         uuid.New(),
		DiscountID: discountID,
		UserID:     userID,
		OrderID:    orderID,
		Confirmed:  false,
		CreatedAt:  time.Now(),
	}

	return s.discountRepo.InsertUsage(ctx, tx, usage)
}

// ConfirmUsage marks the order's usage confirmed on payment success.
func (s *discountService) ConfirmUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	return s.discountRepo.ConfirmUsage(ctx, tx, orderID)
}

// CancelUsage removes the usage row and decrements the counter.
func (s *discountService) CancelUsage(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	return s.discountRepo.CancelUsage(ctx, tx, orderID)
}

// RollbackUsage decrements the counter for an increment that was committed
// without its order.
func (s *discountService) RollbackUsage(ctx context.Context, discountID uuid.UUID) error {
	s.logger.Warn().
		Str("discount_id", discountID.String()).
		Msg("rolling back discount usage increment")
	return s.discountRepo.DecrementUsage(ctx, discountID)
}
