package model

import (
	"time"
)

type Wallet struct {
	WalletID  string    `db:"wallet_id"`
	Address   string    `db:"address"`
	CreatedAt time.Time `db:"created_at"`
}
