package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusSettled   = "settled"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	OrderID           string          `db:"order_id"`
	OfferID           string          `db:"offer_id"`
	BuyerWalletID     string          `db:"buyer_wallet_id"`
	Quantity          decimal.Decimal `db:"quantity"`
	CollateralPercent int             `db:"collateral_percent"`
	DiscountPercent   int             `db:"discount_percent"`
	PromotionID       *string         `db:"promotion_id"` // nullable field
	ChargeAmount      decimal.Decimal `db:"charge_amount"`
	Status            string          `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
}
