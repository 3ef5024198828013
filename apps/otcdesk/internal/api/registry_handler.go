package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
	"otcdesk/apps/otcdesk/internal/repository"
)

// RegistryHandler handles wallet and settlement-token registration
type RegistryHandler struct {
	walletRepository *repository.WalletRepository
	tokenRepository  *repository.TokenRepository
	logger           *zap.Logger
}

func NewRegistryHandler(walletRepository *repository.WalletRepository, tokenRepository *repository.TokenRepository, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{
		walletRepository: walletRepository,
		tokenRepository:  tokenRepository,
		logger:           logger,
	}
}

// RegisterWallet handles POST /api/wallets
func (h *RegistryHandler) RegisterWallet(w http.ResponseWriter, r *http.Request) {
	var req RegisterWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if !isHexAddress(req.Address) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_address", "Address must be a 0x-prefixed 20-byte hex string")
		return
	}

	walletID, err := h.walletRepository.RegisterWallet(req.Address)
	if err != nil {
		h.logger.Error("Failed to register wallet", zap.String("address", req.Address), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to register wallet")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusCreated, RegisterWalletResponse{
		WalletID: walletID,
		Address:  req.Address,
	})
}

// RegisterToken handles POST /api/tokens
func (h *RegistryHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if !isHexAddress(req.Address) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_address", "Address must be a 0x-prefixed 20-byte hex string")
		return
	}
	if req.Symbol == "" {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_symbol", "Symbol is required")
		return
	}
	if req.Decimals < 0 || req.Decimals > 36 {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_decimals", "Decimals must be between 0 and 36")
		return
	}

	exTokenID, err := h.tokenRepository.RegisterToken(model.ExToken{
		ChainID:  req.ChainID,
		Address:  req.Address,
		Symbol:   req.Symbol,
		Decimals: req.Decimals,
	})
	if err != nil {
		h.logger.Error("Failed to register token", zap.String("address", req.Address), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to register token")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusCreated, RegisterTokenResponse{
		ExTokenID: exTokenID,
		Symbol:    req.Symbol,
	})
}

func isHexAddress(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	for _, c := range address[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
