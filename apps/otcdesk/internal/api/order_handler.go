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

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	engine          *engine.Engine
	orderRepository *repository.OrderRepository
	logger          *zap.Logger
}

func NewOrderHandler(engine *engine.Engine, orderRepository *repository.OrderRepository, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		engine:          engine,
		orderRepository: orderRepository,
		logger:          logger,
	}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if req.OfferID == "" {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_offer_id", "Offer id is required")
		return
	}
	if req.BuyerWalletID == "" {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_buyer_wallet_id", "Buyer wallet id is required")
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_quantity", "Quantity must be a decimal number")
		return
	}

	order, err := h.engine.CreateOrder(r.Context(), req.OfferID, req.BuyerWalletID, quantity, req.CollateralPercent)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSONResponse(w, h.logger, http.StatusCreated, orderToResponse(order))
}

// TopUpCollateral handles POST /api/orders/{order_id}/collateral
func (h *OrderHandler) TopUpCollateral(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orderID := vars["order_id"]

	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if req.BuyerWalletID == "" {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_buyer_wallet_id", "Buyer wallet id is required")
		return
	}

	order, err := h.engine.TopUpCollateral(r.Context(), orderID, req.BuyerWalletID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, orderToResponse(order))
}

// ListOrders handles GET /api/orders?buyer_wallet_id={wallet_id}
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	buyerWalletID := r.URL.Query().Get("buyer_wallet_id")
	if buyerWalletID == "" {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "missing_buyer_wallet_id", "buyer_wallet_id query parameter is required")
		return
	}

	orders, err := h.orderRepository.GetOrdersByBuyer(buyerWalletID, 100)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.String("buyer_wallet_id", buyerWalletID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to list orders")
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, orderToResponse(&orders[i]))
	}

	writeJSONResponse(w, h.logger, http.StatusOK, responses)
}

// GetOrder handles GET /api/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orderID := vars["order_id"]

	order, err := h.orderRepository.GetOrderByID(orderID)
	if err != nil {
		h.logger.Error("Failed to get order", zap.String("order_id", orderID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to retrieve order")
		return
	}

	if order == nil {
		writeErrorResponse(w, h.logger, http.StatusNotFound, "order_not_found", "Order not found")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, orderToResponse(order))
}

func orderToResponse(order *model.Order) OrderResponse {
	return OrderResponse{
		OrderID:           order.OrderID,
		OfferID:           order.OfferID,
		BuyerWalletID:     order.BuyerWalletID,
		Quantity:          order.Quantity.String(),
		CollateralPercent: order.CollateralPercent,
		DiscountPercent:   order.DiscountPercent,
		PromotionID:       order.PromotionID,
		ChargeAmount:      order.ChargeAmount.String(),
		Status:            order.Status,
		CreatedAt:         order.CreatedAt,
	}
}
