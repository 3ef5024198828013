package api

import (
	"time"
)

// CreateOrderRequest is the request body for creating an order against an offer
type CreateOrderRequest struct {
	OfferID           string `json:"offer_id"`
	BuyerWalletID     string `json:"buyer_wallet_id"`
	Quantity          string `json:"quantity"`
	CollateralPercent int    `json:"collateral_percent"`
}

// CreateOfferRequest is the request body for listing a new offer
type CreateOfferRequest struct {
	SellerWalletID       string `json:"seller_wallet_id"`
	ExTokenID            string `json:"ex_token_id"`
	UnitPrice            string `json:"unit_price"`
	TotalQuantity        string `json:"total_quantity"`
	MinCollateralPercent int    `json:"min_collateral_percent"`
	SettleDurationHours  int    `json:"settle_duration_hours"`
}

// CreatePromotionRequest is the request body for attaching a discount
// campaign to an offer
type CreatePromotionRequest struct {
	OfferID          string `json:"offer_id"`
	DiscountPercent  int    `json:"discount_percent"`
	CheckType        string `json:"check_type"`
	CheckEligibleURL string `json:"check_eligible_url,omitempty"`
}

// CreatePromotionResponse carries the id of a created promotion
type CreatePromotionResponse struct {
	PromotionID string `json:"promotion_id"`
}

// RegisterWalletRequest is the request body for registering a wallet address
type RegisterWalletRequest struct {
	Address string `json:"address"`
}

// RegisterWalletResponse carries the id of a registered wallet
type RegisterWalletResponse struct {
	WalletID string `json:"wallet_id"`
	Address  string `json:"address"`
}

// RegisterTokenRequest is the request body for registering a settlement token
type RegisterTokenRequest struct {
	ChainID  int64  `json:"chain_id"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// RegisterTokenResponse carries the id of a registered settlement token
type RegisterTokenResponse struct {
	ExTokenID string `json:"ex_token_id"`
	Symbol    string `json:"symbol"`
}

// TopUpRequest is the request body for raising an order to full collateral
type TopUpRequest struct {
	BuyerWalletID string `json:"buyer_wallet_id"`
}

// OrderResponse represents the API response for order information
type OrderResponse struct {
	OrderID           string    `json:"order_id"`
	OfferID           string    `json:"offer_id"`
	BuyerWalletID     string    `json:"buyer_wallet_id"`
	Quantity          string    `json:"quantity"`
	CollateralPercent int       `json:"collateral_percent"`
	DiscountPercent   int       `json:"discount_percent"`
	PromotionID       *string   `json:"promotion_id,omitempty"`
	ChargeAmount      string    `json:"charge_amount"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// OfferResponse represents the API response for offer information
type OfferResponse struct {
	OfferID              string    `json:"offer_id"`
	SellerWalletID       string    `json:"seller_wallet_id"`
	ExTokenID            string    `json:"ex_token_id"`
	UnitPrice            string    `json:"unit_price"`
	TotalQuantity        string    `json:"total_quantity"`
	FilledQuantity       string    `json:"filled_quantity"`
	MinCollateralPercent int       `json:"min_collateral_percent"`
	SettleDurationHours  int       `json:"settle_duration_hours"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

// BalanceResponse represents the API response for wallet balance information
type BalanceResponse struct {
	WalletID      string         `json:"wallet_id"`
	WalletAddress string         `json:"wallet_address"`
	Balances      []TokenBalance `json:"balances"`
}

// TokenBalance represents balance information for one settlement token
type TokenBalance struct {
	ExTokenID string `json:"ex_token_id"`
	Symbol    string `json:"symbol,omitempty"`
	Balance   string `json:"balance"`
}

// ConfirmDepositRequest is the request body for submitting a deposit confirmation
type ConfirmDepositRequest struct {
	TxHash  string `json:"tx_hash"`
	ChainID int64  `json:"chain_id"`
}

// ConfirmDepositResponse reports the ledger state after reconciling a deposit
type ConfirmDepositResponse struct {
	TxHash          string `json:"tx_hash"`
	WalletID        string `json:"wallet_id"`
	ExTokenID       string `json:"ex_token_id"`
	FormattedAmount string `json:"formatted_amount"`
	Balance         string `json:"balance"`
	AlreadyApplied  bool   `json:"already_applied"`
}

// BuildDepositRequest is the request body for building an unsigned deposit
// or approve transaction
type BuildDepositRequest struct {
	ChainID       int64  `json:"chain_id"`
	TokenAddress  string `json:"token_address"`
	Amount        string `json:"amount"`
	WalletAddress string `json:"wallet_address"`
}

// BuildTransactionResponse carries the unsigned transaction for signing
type BuildTransactionResponse struct {
	UnsignedTransaction string `json:"unsigned_transaction"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
