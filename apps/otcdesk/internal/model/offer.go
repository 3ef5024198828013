package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OfferStatusOpen   = "open"
	OfferStatusClosed = "closed"
)

// Offer is a seller's standing sale of a fixed token quantity at a fixed
// unit price, denominated in a settlement token.
type Offer struct {
	ID                   string          `db:"offer_id"`
	SellerWalletID       string          `db:"seller_wallet_id"`
	ExTokenID            string          `db:"ex_token_id"`
	UnitPrice            decimal.Decimal `db:"unit_price"`
	TotalQuantity        decimal.Decimal `db:"total_quantity"`
	FilledQuantity       decimal.Decimal `db:"filled_quantity"`
	MinCollateralPercent int             `db:"min_collateral_percent"`
	SettleDurationHours  int             `db:"settle_duration_hours"`
	Status               string          `db:"status"`
	CreatedAt            time.Time       `db:"created_at"`
}

// RemainingQuantity is the unfilled portion still available for purchase.
func (o *Offer) RemainingQuantity() decimal.Decimal {
	return o.TotalQuantity.Sub(o.FilledQuantity)
}
