package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositEntry is the immutable record of one on-chain deposit having been
// applied to the balance ledger. TxHash is the idempotency key: re-submitting
// the same hash returns the recorded entry instead of crediting again.
type DepositEntry struct {
	TxHash          string          `db:"tx_hash"`
	ChainID         int64           `db:"chain_id"`
	LogIndex        uint64          `db:"log_index"`
	WalletID        string          `db:"wallet_id"`
	ExTokenID       string          `db:"ex_token_id"`
	UserAddress     string          `db:"user_address"`
	TokenAddress    string          `db:"token_address"`
	RawAmount       decimal.Decimal `db:"raw_amount"`
	FormattedAmount decimal.Decimal `db:"formatted_amount"`
	Balance         decimal.Decimal `db:"balance"` // balance after applying this deposit
	CreatedAt       time.Time       `db:"created_at"`
}
