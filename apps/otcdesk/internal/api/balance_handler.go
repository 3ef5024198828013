package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/repository"
)

// BalanceHandler handles wallet balance endpoints
type BalanceHandler struct {
	walletRepository  *repository.WalletRepository
	balanceRepository *repository.BalanceRepository
	tokenRepository   *repository.TokenRepository
	logger            *zap.Logger
}

func NewBalanceHandler(walletRepository *repository.WalletRepository, balanceRepository *repository.BalanceRepository, tokenRepository *repository.TokenRepository, logger *zap.Logger) *BalanceHandler {
	return &BalanceHandler{
		walletRepository:  walletRepository,
		balanceRepository: balanceRepository,
		tokenRepository:   tokenRepository,
		logger:            logger,
	}
}

// GetBalance handles GET /api/balances/{wallet_address}
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	walletAddress := vars["wallet_address"]

	wallet, err := h.walletRepository.GetWalletByAddress(walletAddress)
	if err != nil {
		h.logger.Error("Failed to resolve wallet", zap.String("wallet_address", walletAddress), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to resolve wallet")
		return
	}

	if wallet == nil {
		writeErrorResponse(w, h.logger, http.StatusNotFound, "wallet_not_found", "No wallet registered for address")
		return
	}

	balances, err := h.balanceRepository.GetBalancesByWallet(wallet.WalletID)
	if err != nil {
		h.logger.Error("Failed to get balances", zap.String("wallet_id", wallet.WalletID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to retrieve balances")
		return
	}

	response := BalanceResponse{
		WalletID:      wallet.WalletID,
		WalletAddress: wallet.Address,
		Balances:      make([]TokenBalance, 0, len(balances)),
	}
	for _, balance := range balances {
		symbol := ""
		token, err := h.tokenRepository.GetTokenByID(balance.ExTokenID)
		if err != nil {
			h.logger.Warn("Failed to resolve token symbol", zap.String("ex_token_id", balance.ExTokenID), zap.Error(err))
		} else if token != nil {
			symbol = token.Symbol
		}
		response.Balances = append(response.Balances, TokenBalance{
			ExTokenID: balance.ExTokenID,
			Symbol:    symbol,
			Balance:   balance.Balance.String(),
		})
	}

	writeJSONResponse(w, h.logger, http.StatusOK, response)
}
