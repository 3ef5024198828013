package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"otcdesk/apps/otcdesk/internal/market"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{market.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
		{market.ErrInvalidCollateralPercent, http.StatusBadRequest, "invalid_collateral_percent"},
		{market.ErrSelfTrade, http.StatusBadRequest, "self_trade_forbidden"},
		{market.ErrCollateralBelowSellerFloor, http.StatusBadRequest, "collateral_below_seller_floor"},
		{market.ErrOfferNotFound, http.StatusNotFound, "offer_not_found"},
		{market.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{market.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found"},
		{market.ErrOrderNotOwned, http.StatusForbidden, "order_not_owned"},
		{market.ErrOfferNotOpen, http.StatusConflict, "offer_not_open"},
		{market.ErrInsufficientQuantity, http.StatusConflict, "insufficient_quantity"},
		{market.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
		{market.ErrAlreadyFullyCollateralized, http.StatusConflict, "already_fully_collateralized"},
		{market.ErrDepositEventNotFound, http.StatusUnprocessableEntity, "deposit_event_not_found"},
		{fmt.Errorf("%w: rpc down", market.ErrRetryable), http.StatusServiceUnavailable, "try_again"},
		{errors.New("something else"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.wantCode, func(t *testing.T) {
			status, code := statusForError(tc.err)
			if status != tc.wantStatus || code != tc.wantCode {
				t.Errorf("statusForError(%v) = (%d, %s), want (%d, %s)", tc.err, status, code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

func TestStatusForWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", market.ErrInsufficientBalance)
	status, code := statusForError(wrapped)
	if status != http.StatusConflict || code != "insufficient_balance" {
		t.Errorf("wrapped error not unwrapped: (%d, %s)", status, code)
	}
}
