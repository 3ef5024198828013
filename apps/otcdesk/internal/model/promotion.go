package model

import (
	"time"
)

const (
	PromotionCheckTypeURL  = "url"
	PromotionCheckTypeTest = "test"
)

// Promotion is an offer-scoped discount campaign. When several are active
// for one offer, the most recently created one is authoritative.
type Promotion struct {
	ID               string    `db:"promotion_id"`
	OfferID          string    `db:"offer_id"`
	IsActive         bool      `db:"is_active"`
	DiscountPercent  int       `db:"discount_percent"`
	CheckType        string    `db:"check_type"` // "url" or "test"
	CheckEligibleURL string    `db:"check_eligible_url"`
	CreatedAt        time.Time `db:"created_at"`
}
