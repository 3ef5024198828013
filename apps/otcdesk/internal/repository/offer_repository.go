package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/market"
	"otcdesk/apps/otcdesk/internal/model"
)

type OfferRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOfferRepository(db *sql.DB, logger *zap.Logger) *OfferRepository {
	return &OfferRepository{db: db, logger: logger}
}

func (r *OfferRepository) GetOffer(offerID string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.QueryRow(`
		SELECT offer_id, seller_wallet_id, ex_token_id, unit_price, total_quantity, filled_quantity, min_collateral_percent, settle_duration_hours, status, created_at
		FROM offers
		WHERE offer_id = $1
	`, offerID).Scan(&offer.ID, &offer.SellerWalletID, &offer.ExTokenID, &offer.UnitPrice, &offer.TotalQuantity,
		&offer.FilledQuantity, &offer.MinCollateralPercent, &offer.SettleDurationHours, &offer.Status, &offer.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return &offer, nil
}

// ReserveQuantity increments filled_quantity and closes the offer when it
// reaches total_quantity, all in one conditional statement. Two buyers racing
// for the last quantity cannot both succeed: the guard re-checks availability
// at write time, not read time.
func (r *OfferRepository) ReserveQuantity(offerID string, quantity decimal.Decimal) error {
	result, err := r.db.Exec(`
		UPDATE offers
		SET filled_quantity = filled_quantity + $2,
			status = CASE WHEN filled_quantity + $2 = total_quantity THEN 'closed' ELSE status END
		WHERE offer_id = $1 AND status = 'open' AND filled_quantity + $2 <= total_quantity
	`, offerID, quantity)

	if err != nil {
		return fmt.Errorf("failed to reserve offer quantity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reservation result: %w", err)
	}
	if rows == 0 {
		// Disambiguate: missing, closed, or not enough left.
		offer, err := r.GetOffer(offerID)
		if err != nil {
			return err
		}
		if offer == nil {
			return market.ErrOfferNotFound
		}
		if offer.Status != model.OfferStatusOpen {
			return market.ErrOfferNotOpen
		}
		return market.ErrInsufficientQuantity
	}

	r.logger.Info("Reserved offer quantity",
		zap.String("offer_id", offerID),
		zap.String("quantity", quantity.String()))
	return nil
}

// ReleaseQuantity undoes a reservation whose order could not be persisted.
// It is only called on the compensation path. If that very reservation closed
// the offer, the close is reverted in the same statement, since the fill it
// accounted for never existed.
func (r *OfferRepository) ReleaseQuantity(offerID string, quantity decimal.Decimal) error {
	_, err := r.db.Exec(`
		UPDATE offers
		SET filled_quantity = filled_quantity - $2,
			status = CASE WHEN filled_quantity = total_quantity THEN 'open' ELSE status END
		WHERE offer_id = $1 AND filled_quantity >= $2
	`, offerID, quantity)

	if err != nil {
		return fmt.Errorf("failed to release offer quantity: %w", err)
	}

	return nil
}

func (r *OfferRepository) CreateOffer(offer model.Offer) (string, error) {
	var offerID string
	err := r.db.QueryRow(`
		INSERT INTO offers (seller_wallet_id, ex_token_id, unit_price, total_quantity, min_collateral_percent, settle_duration_hours, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'open')
		RETURNING offer_id
	`, offer.SellerWalletID, offer.ExTokenID, offer.UnitPrice, offer.TotalQuantity,
		offer.MinCollateralPercent, offer.SettleDurationHours).Scan(&offerID)

	if err != nil {
		return "", fmt.Errorf("failed to create offer: %w", err)
	}

	r.logger.Info("Created offer",
		zap.String("offer_id", offerID),
		zap.String("seller_wallet_id", offer.SellerWalletID),
		zap.String("total_quantity", offer.TotalQuantity.String()))
	return offerID, nil
}

func (r *OfferRepository) GetOpenOffers(limit int) ([]model.Offer, error) {
	rows, err := r.db.Query(`
		SELECT offer_id, seller_wallet_id, ex_token_id, unit_price, total_quantity, filled_quantity, min_collateral_percent, settle_duration_hours, status, created_at
		FROM offers
		WHERE status = 'open'
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get open offers: %w", err)
	}
	defer rows.Close()

	var offers []model.Offer
	for rows.Next() {
		var offer model.Offer
		if err := rows.Scan(&offer.ID, &offer.SellerWalletID, &offer.ExTokenID, &offer.UnitPrice, &offer.TotalQuantity,
			&offer.FilledQuantity, &offer.MinCollateralPercent, &offer.SettleDurationHours, &offer.Status, &offer.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}
