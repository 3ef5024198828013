package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletBalance is the ledger row for one (wallet, settlement-token) pair.
// The balance is never mutated by a blind overwrite; every change is a
// conditional delta applied by the backing store.
type WalletBalance struct {
	WalletID  string          `db:"wallet_id"`
	ExTokenID string          `db:"ex_token_id"`
	Balance   decimal.Decimal `db:"balance"`
	UpdatedAt time.Time       `db:"updated_at"`
}
