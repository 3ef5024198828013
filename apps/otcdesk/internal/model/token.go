package model

import (
	"time"
)

// ExToken is a settlement token registered on one chain. Offers are priced
// in an ExToken and wallet balances are denominated in it.
type ExToken struct {
	ExTokenID string    `db:"ex_token_id"`
	ChainID   int64     `db:"chain_id"`
	Address   string    `db:"address"`
	Symbol    string    `db:"symbol"`
	Decimals  int       `db:"decimals"`
	CreatedAt time.Time `db:"created_at"`
}
