package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/engine"
	"otcdesk/apps/otcdesk/internal/model"
	"otcdesk/apps/otcdesk/internal/repository"
)

// OfferHandler handles offer listing, creation, and promotion endpoints
type OfferHandler struct {
	offerRepository     *repository.OfferRepository
	promotionRepository *repository.PromotionRepository
	walletRepository    *repository.WalletRepository
	logger              *zap.Logger
}

func NewOfferHandler(offerRepository *repository.OfferRepository, promotionRepository *repository.PromotionRepository, walletRepository *repository.WalletRepository, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{
		offerRepository:     offerRepository,
		promotionRepository: promotionRepository,
		walletRepository:    walletRepository,
		logger:              logger,
	}
}

// CreateOffer handles POST /api/offers
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || unitPrice.LessThanOrEqual(decimal.Zero) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_unit_price", "Unit price must be a positive decimal number")
		return
	}
	totalQuantity, err := decimal.NewFromString(req.TotalQuantity)
	if err != nil || totalQuantity.LessThanOrEqual(decimal.Zero) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_total_quantity", "Total quantity must be a positive decimal number")
		return
	}
	if req.MinCollateralPercent < engine.MinCollateralPercent || req.MinCollateralPercent > 100 {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_min_collateral_percent", "Minimum collateral percent must be between 25 and 100")
		return
	}
	if req.SettleDurationHours <= 0 {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_settle_duration", "Settle duration must be positive")
		return
	}

	seller, err := h.walletRepository.GetWalletByID(req.SellerWalletID)
	if err != nil {
		h.logger.Error("Failed to resolve seller wallet", zap.String("wallet_id", req.SellerWalletID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to resolve seller wallet")
		return
	}
	if seller == nil {
		writeErrorResponse(w, h.logger, http.StatusNotFound, "wallet_not_found", "Seller wallet is not registered")
		return
	}

	offerID, err := h.offerRepository.CreateOffer(model.Offer{
		SellerWalletID:       req.SellerWalletID,
		ExTokenID:            req.ExTokenID,
		UnitPrice:            unitPrice,
		TotalQuantity:        totalQuantity,
		MinCollateralPercent: req.MinCollateralPercent,
		SettleDurationHours:  req.SettleDurationHours,
	})
	if err != nil {
		h.logger.Error("Failed to create offer", zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to create offer")
		return
	}

	offer, err := h.offerRepository.GetOffer(offerID)
	if err != nil || offer == nil {
		h.logger.Error("Failed to read back created offer", zap.String("offer_id", offerID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to read created offer")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusCreated, offerToResponse(offer))
}

// CreatePromotion handles POST /api/promotions
func (h *OfferHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if req.DiscountPercent <= 0 || req.DiscountPercent > 100 {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_discount_percent", "Discount percent must be between 1 and 100")
		return
	}
	switch req.CheckType {
	case model.PromotionCheckTypeTest:
	case model.PromotionCheckTypeURL:
		if req.CheckEligibleURL == "" {
			writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_check_url", "Check URL is required for url check type")
			return
		}
	default:
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_check_type", "Check type must be 'url' or 'test'")
		return
	}

	offer, err := h.offerRepository.GetOffer(req.OfferID)
	if err != nil {
		h.logger.Error("Failed to resolve offer", zap.String("offer_id", req.OfferID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to resolve offer")
		return
	}
	if offer == nil {
		writeErrorResponse(w, h.logger, http.StatusNotFound, "offer_not_found", "Offer not found")
		return
	}

	promotionID, err := h.promotionRepository.CreatePromotion(model.Promotion{
		OfferID:          req.OfferID,
		IsActive:         true,
		DiscountPercent:  req.DiscountPercent,
		CheckType:        req.CheckType,
		CheckEligibleURL: req.CheckEligibleURL,
	})
	if err != nil {
		h.logger.Error("Failed to create promotion", zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to create promotion")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusCreated, CreatePromotionResponse{PromotionID: promotionID})
}

// GetOffer handles GET /api/offers/{offer_id}
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	offerID := vars["offer_id"]

	offer, err := h.offerRepository.GetOffer(offerID)
	if err != nil {
		h.logger.Error("Failed to get offer", zap.String("offer_id", offerID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to retrieve offer")
		return
	}

	if offer == nil {
		writeErrorResponse(w, h.logger, http.StatusNotFound, "offer_not_found", "Offer not found")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, offerToResponse(offer))
}

// GetOpenOffers handles GET /api/offers
func (h *OfferHandler) GetOpenOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.offerRepository.GetOpenOffers(100)
	if err != nil {
		h.logger.Error("Failed to list offers", zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to list offers")
		return
	}

	responses := make([]OfferResponse, 0, len(offers))
	for i := range offers {
		responses = append(responses, offerToResponse(&offers[i]))
	}

	writeJSONResponse(w, h.logger, http.StatusOK, responses)
}

func offerToResponse(offer *model.Offer) OfferResponse {
	return OfferResponse{
		OfferID:              offer.ID,
		SellerWalletID:       offer.SellerWalletID,
		ExTokenID:            offer.ExTokenID,
		UnitPrice:            offer.UnitPrice.String(),
		TotalQuantity:        offer.TotalQuantity.String(),
		FilledQuantity:       offer.FilledQuantity.String(),
		MinCollateralPercent: offer.MinCollateralPercent,
		SettleDurationHours:  offer.SettleDurationHours,
		Status:               offer.Status,
		CreatedAt:            offer.CreatedAt,
	}
}
