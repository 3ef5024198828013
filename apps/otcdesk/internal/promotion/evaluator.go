package promotion

import (
	"context"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

// PromotionSource yields the authoritative active promotion for an offer,
// or nil when none exists.
type PromotionSource interface {
	GetActivePromotion(offerID string) (*model.Promotion, error)
}

// EligibilityChecker performs the external URL check.
type EligibilityChecker interface {
	CheckURL(ctx context.Context, checkURL, walletAddress string) (bool, error)
}

// Result is the outcome of evaluating a promotion for one purchase attempt.
type Result struct {
	Eligible        bool
	DiscountPercent int
	PromotionID     *string
}

// Evaluator decides whether a buyer qualifies for a discount on an offer.
// Discounts are a full-payment incentive: a partially collateralized order is
// never eligible. External check failures are never eligible either, so an
// unreachable checker can withhold a discount but can never grant one.
type Evaluator struct {
	promotions PromotionSource
	checker    EligibilityChecker
	logger     *zap.Logger
}

func NewEvaluator(promotions PromotionSource, checker EligibilityChecker, logger *zap.Logger) *Evaluator {
	return &Evaluator{promotions: promotions, checker: checker, logger: logger}
}

func (e *Evaluator) Evaluate(ctx context.Context, offerID, buyerAddress string, requestedCollateralPercent int) (Result, error) {
	active, err := e.promotions.GetActivePromotion(offerID)
	if err != nil {
		return Result{}, err
	}
	if active == nil {
		return Result{}, nil
	}

	if requestedCollateralPercent < 100 {
		return Result{}, nil
	}

	switch active.CheckType {
	case model.PromotionCheckTypeTest:
		// Unconditionally eligible.
	case model.PromotionCheckTypeURL:
		eligible, err := e.checker.CheckURL(ctx, active.CheckEligibleURL, buyerAddress)
		if err != nil {
			e.logger.Warn("Eligibility check failed, treating as not eligible",
				zap.String("promotion_id", active.ID),
				zap.String("buyer_address", buyerAddress),
				zap.Error(err))
			return Result{}, nil
		}
		if !eligible {
			return Result{}, nil
		}
	default:
		e.logger.Warn("Unknown promotion check type",
			zap.String("promotion_id", active.ID),
			zap.String("check_type", active.CheckType))
		return Result{}, nil
	}

	promotionID := active.ID
	return Result{
		Eligible:        true,
		DiscountPercent: active.DiscountPercent,
		PromotionID:     &promotionID,
	}, nil
}
