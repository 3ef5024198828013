package market

import (
	"errors"
)

// Validation errors: rejected before any state is touched.
var (
	ErrInvalidQuantity            = errors.New("quantity must be greater than zero")
	ErrInvalidCollateralPercent   = errors.New("collateral percent must be at least 25")
	ErrOfferNotFound              = errors.New("offer not found")
	ErrOfferNotOpen               = errors.New("offer is not open")
	ErrSelfTrade                  = errors.New("buyer cannot purchase from their own offer")
	ErrCollateralBelowSellerFloor = errors.New("collateral percent is below the seller's floor")
)

// Resource-state errors: expected conditions, retryable by the user.
var (
	ErrInsufficientQuantity       = errors.New("offer has insufficient remaining quantity")
	ErrInsufficientBalance        = errors.New("insufficient wallet balance")
	ErrOrderNotFound              = errors.New("order not found")
	ErrOrderNotOwned              = errors.New("order does not belong to this wallet")
	ErrOrderNotPending            = errors.New("order is not pending")
	ErrAlreadyFullyCollateralized = errors.New("order is already fully collateralized")
)

// Reconciliation errors.
var (
	ErrNetworkNotFound      = errors.New("network not configured for chain id")
	ErrEscrowNotFound       = errors.New("no escrow contract deployed for chain id")
	ErrDepositEventNotFound = errors.New("transaction carries no recognized deposit event")
	ErrWalletNotFound       = errors.New("no wallet registered for address")
	ErrTokenNotFound        = errors.New("settlement token not registered")
)

// ErrRetryable marks failures of external dependencies (RPC, eligibility
// checker) where no state was mutated and the caller may simply try again.
var ErrRetryable = errors.New("temporary failure, retry")

// Retryable reports whether err is safe to retry without reconciliation.
func Retryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
