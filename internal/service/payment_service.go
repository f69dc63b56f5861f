package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-core/internal/cache"
	"shop-core/internal/gateway"
	"shop-core/internal/model"
	"shop-core/internal/notify"
	"shop-core/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	discounts   DiscountService
	gw          gateway.Gateway
	notifier    notify.Notifier
	invalidator cache.Invalidator
	expiry      time.Duration
	logger      zerolog.Logger
}

// NewPaymentService creates a new payment reconciliation service.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	discounts DiscountService,
	gw gateway.Gateway,
	notifier notify.Notifier,
	invalidator cache.Invalidator,
	expiry time.Duration,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		discounts:   discounts,
		gw:          gw,
		notifier:    notifier,
		invalidator: invalidator,
		expiry:      expiry,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// InitiatePayment opens a payment attempt with the gateway and persists a
// pending transaction. A gateway failure persists nothing, so the caller
// can retry cleanly.
func (s *paymentService) InitiatePayment(ctx context.Context, order *model.Order, callbackURL string) (*model.CheckoutResponse, error) {
	// A settled order never opens another gateway attempt: a checkout retry
	// after successful payment replays the stored order, it must not hand
	// the customer a second payment URL.
	if order.IsPaid || order.Status == model.OrderStatusPaid {
		return nil, model.ErrOrderAlreadyPaid
	}

	result, err := s.gw.Request(ctx, order.FinalAmount,
		fmt.Sprintf("order %s", order.ID), callbackURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("gateway payment request failed")
		return nil, err
	}

	now := time.Now()
	pt := &model.PaymentTransaction{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Authority:   result.Authority,
		Amount:      order.FinalAmount,
		Status:      model.PaymentStatusPending,
		GatewayName: s.gw.Name(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.paymentRepo.Create(ctx, pt); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("authority", result.Authority).
		Int64("amount", order.FinalAmount).
		Msg("payment initiated")

	return &model.CheckoutResponse{
		OrderID:    order.ID,
		Authority:  result.Authority,
		PaymentURL: result.PaymentURL,
	}, nil
}

// GetByAuthority exposes the stored attempt for status reads.
func (s *paymentService) GetByAuthority(ctx context.Context, authority string) (*model.PaymentTransaction, error) {
	return s.paymentRepo.GetByAuthority(ctx, authority)
}

// VerifyPayment reconciles the synchronous gateway callback.
func (s *paymentService) VerifyPayment(ctx context.Context, authority, callbackStatus string) (*model.VerifyResult, error) {
	// Fail closed: only the gateway's canonical success token proceeds to
	// verification.
	if callbackStatus != gateway.StatusOK {
		return s.settleFailed(ctx, authority, fmt.Sprintf("gateway callback status %q", callbackStatus))
	}

	return s.settle(ctx, authority)
}

// HandleWebhook reconciles an asynchronous gateway callback. It never
// propagates business failures: the gateway delivers at least once and out
// of order, so unknown authorities and settled attempts are logged and
// dropped.
func (s *paymentService) HandleWebhook(ctx context.Context, req *model.WebhookRequest) error {
	var (
		result *model.VerifyResult
		err    error
	)

	if req.Status != gateway.StatusOK {
		result, err = s.settleFailed(ctx, req.Authority, fmt.Sprintf("gateway webhook status %q", req.Status))
	} else {
		result, err = s.settle(ctx, req.Authority)
	}

	if err != nil {
		if errors.Is(err, model.ErrPaymentNotFound) {
			s.logger.Warn().Str("authority", req.Authority).Msg("webhook for unknown authority, dropping")
			return nil
		}
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			s.logger.Info().
				Str("authority", req.Authority).
				Str("code", domainErr.Code).
				Msg("webhook settled on a non-success path")
			return nil
		}
		return err
	}

	s.logger.Info().
		Str("authority", req.Authority).
		Bool("verified", result.IsVerified).
		Msg("webhook processed")

	return nil
}

// settle drives a pending transaction to a terminal state under the
// advisory lock, calling the gateway to confirm settlement.
func (s *paymentService) settle(ctx context.Context, authority string) (*model.VerifyResult, error) {
	tx, err := s.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pt, err := s.paymentRepo.GetByAuthorityTx(ctx, tx, authority)
	if err != nil {
		return nil, err
	}

	switch pt.Status {
	case model.PaymentStatusSuccess:
		// Terminal and idempotent: replay the stored result, no side
		// effects again.
		refID := ""
		if pt.RefID != nil {
			refID = *pt.RefID
		}
		return &model.VerifyResult{
			IsVerified: true,
			RefID:      refID,
			OrderID:    pt.OrderID,
			Message:    "payment already verified",
		}, nil
	case model.PaymentStatusExpired:
		return &model.VerifyResult{
			IsVerified: false,
			OrderID:    pt.OrderID,
			Message:    model.ErrPaymentExpired.Message,
		}, model.ErrPaymentExpired
	case model.PaymentStatusFailed:
		return &model.VerifyResult{
			IsVerified: false,
			OrderID:    pt.OrderID,
			Message:    pt.GatewayMessage,
		}, model.ErrPaymentFailed
	}

	outcome, err := s.gw.Verify(ctx, authority, pt.Amount)
	if err != nil {
		if errors.Is(err, model.ErrGatewayUnavailable) {
			// No terminal state on a transport failure: the attempt stays
			// pending and remains verifiable.
			return nil, err
		}

		var domainErr *model.DomainError
		message := "gateway verification rejected"
		if errors.As(err, &domainErr) && domainErr.Message != "" {
			message = domainErr.Message
		}

		if err := s.paymentRepo.MarkFailed(ctx, tx, authority, message); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit payment failure: %w", err)
		}

		s.emit(notify.EventPaymentFailed, pt, "")

		return &model.VerifyResult{
			IsVerified: false,
			OrderID:    pt.OrderID,
			Message:    message,
		}, model.ErrPaymentFailed
	}

	if err := s.paymentRepo.MarkSuccess(ctx, tx, authority, outcome.RefID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.MarkPaid(ctx, tx, pt.OrderID); err != nil {
		// The order was already paid through another attempt; the payment
		// row still records this settlement.
		if !errors.Is(err, model.ErrVersionConflict) {
			return nil, err
		}
	}
	if err := s.discounts.ConfirmUsage(ctx, tx, pt.OrderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment success: %w", err)
	}

	s.invalidator.OrderChanged(ctx, pt.OrderID)
	s.emit(notify.EventOrderPaid, pt, outcome.RefID)

	s.logger.Info().
		Str("authority", authority).
		Str("order_id", pt.OrderID.String()).
		Str("ref_id", outcome.RefID).
		Msg("payment verified")

	return &model.VerifyResult{
		IsVerified: true,
		RefID:      outcome.RefID,
		OrderID:    pt.OrderID,
		Message:    "payment verified",
	}, nil
}

// settleFailed marks a pending attempt failed without calling the gateway.
// Already-terminal attempts are left untouched.
func (s *paymentService) settleFailed(ctx context.Context, authority, message string) (*model.VerifyResult, error) {
	tx, err := s.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pt, err := s.paymentRepo.GetByAuthorityTx(ctx, tx, authority)
	if err != nil {
		return nil, err
	}

	if pt.Status == model.PaymentStatusSuccess {
		refID := ""
		if pt.RefID != nil {
			refID = *pt.RefID
		}
		return &model.VerifyResult{
			IsVerified: true,
			RefID:      refID,
			OrderID:    pt.OrderID,
			Message:    "payment already verified",
		}, nil
	}

	if pt.Status == model.PaymentStatusExpired {
		return &model.VerifyResult{
			IsVerified: false,
			OrderID:    pt.OrderID,
			Message:    model.ErrPaymentExpired.Message,
		}, model.ErrPaymentExpired
	}

	if pt.Status == model.PaymentStatusPending {
		if err := s.paymentRepo.MarkFailed(ctx, tx, authority, message); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit payment failure: %w", err)
		}
		s.emit(notify.EventPaymentFailed, pt, "")
	}

	return &model.VerifyResult{
		IsVerified: false,
		OrderID:    pt.OrderID,
		Message:    message,
	}, model.ErrPaymentFailed
}

// ExpirePending sweeps pending transactions older than the configured
// window to expired.
func (s *paymentService) ExpirePending(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.expiry)

	swept, err := s.paymentRepo.ExpireOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		s.logger.Info().Int64("swept", swept).Time("cutoff", cutoff).Msg("expired stale pending payments")
	}

	return swept, nil
}

func (s *paymentService) emit(kind string, pt *model.PaymentTransaction, refID string) {
	s.notifier.Emit(notify.Event{
		Kind:       kind,
		OrderID:    pt.OrderID,
		Amount:     pt.Amount,
		RefID:      refID,
		OccurredAt: time.Now(),
	})
}
