package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/escrow"
	"otcdesk/apps/otcdesk/internal/reconciler"
)

// DepositHandler handles deposit confirmation and transaction-building
// endpoints
type DepositHandler struct {
	reconciler *reconciler.Reconciler
	escrow     *escrow.Client
	logger     *zap.Logger
}

func NewDepositHandler(reconciler *reconciler.Reconciler, escrow *escrow.Client, logger *zap.Logger) *DepositHandler {
	return &DepositHandler{
		reconciler: reconciler,
		escrow:     escrow,
		logger:     logger,
	}
}

// ConfirmDeposit handles POST /api/deposits/confirm
func (h *DepositHandler) ConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	var req ConfirmDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if !strings.HasPrefix(req.TxHash, "0x") {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_tx_hash", "Transaction hash is required")
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), req.TxHash, req.ChainID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, ConfirmDepositResponse{
		TxHash:          result.TxHash,
		WalletID:        result.WalletID,
		ExTokenID:       result.ExTokenID,
		FormattedAmount: result.FormattedAmount.String(),
		Balance:         result.NewBalance.String(),
		AlreadyApplied:  result.AlreadyApplied,
	})
}

// BuildDeposit handles POST /api/deposits/build
func (h *DepositHandler) BuildDeposit(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.decodeBuildRequest(w, r)
	if !ok {
		return
	}

	payload, err := h.escrow.BuildDeposit(r.Context(), req.ChainID, req.TokenAddress, amount, req.WalletAddress)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.writeTransaction(w, payload)
}

// BuildApprove handles POST /api/deposits/approve
func (h *DepositHandler) BuildApprove(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.decodeBuildRequest(w, r)
	if !ok {
		return
	}

	payload, err := h.escrow.BuildApprove(r.Context(), req.ChainID, req.TokenAddress, amount, req.WalletAddress)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.writeTransaction(w, payload)
}

func (h *DepositHandler) decodeBuildRequest(w http.ResponseWriter, r *http.Request) (BuildDepositRequest, decimal.Decimal, bool) {
	var req BuildDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return req, decimal.Zero, false
	}

	if req.TokenAddress == "" {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_token_address", "Token address is required")
		return req, decimal.Zero, false
	}
	if req.WalletAddress == "" {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_wallet_address", "Wallet address is required")
		return req, decimal.Zero, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_amount", "Amount must be a positive decimal number")
		return req, decimal.Zero, false
	}

	return req, amount, true
}

func (h *DepositHandler) writeTransaction(w http.ResponseWriter, payload *escrow.TxPayload) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal unsigned transaction", zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "serialization_error", "Failed to serialize transaction")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusCreated, BuildTransactionResponse{
		UnsignedTransaction: string(payloadJSON),
	})
}
