package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/market"
)

// statusForError maps domain errors to an HTTP status and a stable reason
// code the front end can branch on.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, market.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, market.ErrInvalidCollateralPercent):
		return http.StatusBadRequest, "invalid_collateral_percent"
	case errors.Is(err, market.ErrSelfTrade):
		return http.StatusBadRequest, "self_trade_forbidden"
	case errors.Is(err, market.ErrCollateralBelowSellerFloor):
		return http.StatusBadRequest, "collateral_below_seller_floor"
	case errors.Is(err, market.ErrOfferNotFound):
		return http.StatusNotFound, "offer_not_found"
	case errors.Is(err, market.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, market.ErrWalletNotFound):
		return http.StatusNotFound, "wallet_not_found"
	case errors.Is(err, market.ErrTokenNotFound):
		return http.StatusNotFound, "token_not_found"
	case errors.Is(err, market.ErrNetworkNotFound):
		return http.StatusNotFound, "network_not_found"
	case errors.Is(err, market.ErrEscrowNotFound):
		return http.StatusNotFound, "escrow_not_found"
	case errors.Is(err, market.ErrOrderNotOwned):
		return http.StatusForbidden, "order_not_owned"
	case errors.Is(err, market.ErrOfferNotOpen):
		return http.StatusConflict, "offer_not_open"
	case errors.Is(err, market.ErrInsufficientQuantity):
		return http.StatusConflict, "insufficient_quantity"
	case errors.Is(err, market.ErrInsufficientBalance):
		return http.StatusConflict, "insufficient_balance"
	case errors.Is(err, market.ErrOrderNotPending):
		return http.StatusConflict, "order_not_pending"
	case errors.Is(err, market.ErrAlreadyFullyCollateralized):
		return http.StatusConflict, "already_fully_collateralized"
	case errors.Is(err, market.ErrDepositEventNotFound):
		return http.StatusUnprocessableEntity, "deposit_event_not_found"
	case market.Retryable(err):
		return http.StatusServiceUnavailable, "try_again"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSONResponse(w http.ResponseWriter, logger *zap.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func writeErrorResponse(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	writeJSONResponse(w, logger, statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	statusCode, errorCode := statusForError(err)
	if statusCode == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		writeErrorResponse(w, logger, statusCode, errorCode, "Internal error")
		return
	}
	writeErrorResponse(w, logger, statusCode, errorCode, err.Error())
}
