package events

import (
	"encoding/json"
	"time"
)

// Envelope wraps every event published to the market topic.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	WalletID  string          `json:"wallet_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	EventTypeOrderCreated       = "order_created"
	EventTypeCollateralToppedUp = "collateral_topped_up"
	EventTypeDepositReconciled  = "deposit_reconciled"
)

type OrderCreatedEvent struct {
	OrderID           string    `json:"order_id"`
	OfferID           string    `json:"offer_id"`
	BuyerWalletID     string    `json:"buyer_wallet_id"`
	Quantity          string    `json:"quantity"`
	ChargeAmount      string    `json:"charge_amount"`
	CollateralPercent int       `json:"collateral_percent"`
	DiscountPercent   int       `json:"discount_percent"`
	Timestamp         time.Time `json:"timestamp"`
}

type CollateralToppedUpEvent struct {
	OrderID       string    `json:"order_id"`
	BuyerWalletID string    `json:"buyer_wallet_id"`
	TopUpAmount   string    `json:"top_up_amount"`
	Timestamp     time.Time `json:"timestamp"`
}

type DepositReconciledEvent struct {
	TxHash          string    `json:"tx_hash"`
	ChainID         int64     `json:"chain_id"`
	WalletID        string    `json:"wallet_id"`
	ExTokenID       string    `json:"ex_token_id"`
	FormattedAmount string    `json:"formatted_amount"`
	Balance         string    `json:"balance"`
	Timestamp       time.Time `json:"timestamp"`
}
