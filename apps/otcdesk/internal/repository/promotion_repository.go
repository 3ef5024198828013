package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

type PromotionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPromotionRepository(db *sql.DB, logger *zap.Logger) *PromotionRepository {
	return &PromotionRepository{db: db, logger: logger}
}

// GetActivePromotion returns the authoritative promotion for an offer: the
// most recently created active one. Nil when no active promotion exists.
func (r *PromotionRepository) GetActivePromotion(offerID string) (*model.Promotion, error) {
	var promotion model.Promotion
	err := r.db.QueryRow(`
		SELECT promotion_id, offer_id, is_active, discount_percent, check_type, check_eligible_url, created_at
		FROM promotions
		WHERE offer_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`, offerID).Scan(&promotion.ID, &promotion.OfferID, &promotion.IsActive, &promotion.DiscountPercent,
		&promotion.CheckType, &promotion.CheckEligibleURL, &promotion.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active promotion: %w", err)
	}

	return &promotion, nil
}

func (r *PromotionRepository) CreatePromotion(promotion model.Promotion) (string, error) {
	var promotionID string
	err := r.db.QueryRow(`
		INSERT INTO promotions (offer_id, is_active, discount_percent, check_type, check_eligible_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING promotion_id
	`, promotion.OfferID, promotion.IsActive, promotion.DiscountPercent,
		promotion.CheckType, promotion.CheckEligibleURL).Scan(&promotionID)

	if err != nil {
		return "", fmt.Errorf("failed to create promotion: %w", err)
	}

	r.logger.Info("Created promotion",
		zap.String("promotion_id", promotionID),
		zap.String("offer_id", promotion.OfferID),
		zap.Int("discount_percent", promotion.DiscountPercent))
	return promotionID, nil
}
