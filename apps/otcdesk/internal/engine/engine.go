package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/events"
	"otcdesk/apps/otcdesk/internal/market"
	"otcdesk/apps/otcdesk/internal/model"
	"otcdesk/apps/otcdesk/internal/promotion"
)

// Ledger mutates wallet balances through conditional deltas. A debit that
// would overdraw the row fails with market.ErrInsufficientBalance.
type Ledger interface {
	Debit(walletID, exTokenID string, amount decimal.Decimal) error
	Credit(walletID, exTokenID string, amount decimal.Decimal) error
}

// OfferBook tracks per-offer fill level and lifecycle status.
type OfferBook interface {
	GetOffer(offerID string) (*model.Offer, error)
	ReserveQuantity(offerID string, quantity decimal.Decimal) error
	ReleaseQuantity(offerID string, quantity decimal.Decimal) error
}

// OrderStore persists orders. CompleteCollateral reports whether the
// conditional transition to 100% applied.
type OrderStore interface {
	CreateOrder(order model.Order) error
	GetOrderByID(orderID string) (*model.Order, error)
	CompleteCollateral(orderID string) (bool, error)
}

// WalletDirectory resolves wallet identity for promotion eligibility checks.
type WalletDirectory interface {
	GetWalletByID(walletID string) (*model.Wallet, error)
}

// PromotionEvaluator decides discount eligibility at order-creation time.
type PromotionEvaluator interface {
	Evaluate(ctx context.Context, offerID, buyerAddress string, requestedCollateralPercent int) (promotion.Result, error)
}

// EventSink records outbox events for asynchronous publishing. Sink failures
// never fail the operation that produced the event.
type EventSink interface {
	StoreEvent(eventType, walletID string, payload any) error
}

// Engine validates and settles purchases against offers: it computes the
// collateral-adjusted charge, debits the buyer, reserves offer quantity, and
// later accepts collateral top-ups. Where the three mutations cannot share a
// transaction it compensates: a debit whose reservation failed is refunded,
// and a failed refund is escalated as a consistency hazard rather than
// swallowed.
type Engine struct {
	offers     OfferBook
	orders     OrderStore
	ledger     Ledger
	wallets    WalletDirectory
	promotions PromotionEvaluator
	outbox     EventSink
	logger     *zap.Logger
}

func NewEngine(offers OfferBook, orders OrderStore, ledger Ledger, wallets WalletDirectory, promotions PromotionEvaluator, outbox EventSink, logger *zap.Logger) *Engine {
	return &Engine{
		offers:     offers,
		orders:     orders,
		ledger:     ledger,
		wallets:    wallets,
		promotions: promotions,
		outbox:     outbox,
		logger:     logger,
	}
}

// MinCollateralPercent is the marketplace-wide floor for any order.
const MinCollateralPercent = 25

// CreateOrder creates a collateral-backed order for quantity units of the
// offer. With full collateral the buyer pays the (possibly discounted) full
// price; with partial collateral the charge is scaled by the collateral
// percent and no discount applies.
func (e *Engine) CreateOrder(ctx context.Context, offerID, buyerWalletID string, quantity decimal.Decimal, requestedCollateralPercent int) (*model.Order, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, market.ErrInvalidQuantity
	}
	if requestedCollateralPercent < MinCollateralPercent || requestedCollateralPercent > 100 {
		return nil, market.ErrInvalidCollateralPercent
	}

	offer, err := e.offers.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, market.ErrOfferNotFound
	}
	if offer.Status != model.OfferStatusOpen {
		return nil, market.ErrOfferNotOpen
	}
	if offer.FilledQuantity.Add(quantity).GreaterThan(offer.TotalQuantity) {
		return nil, market.ErrInsufficientQuantity
	}
	if buyerWalletID == offer.SellerWalletID {
		return nil, market.ErrSelfTrade
	}
	if requestedCollateralPercent < offer.MinCollateralPercent {
		return nil, market.ErrCollateralBelowSellerFloor
	}

	buyer, err := e.wallets.GetWalletByID(buyerWalletID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, market.ErrWalletNotFound
	}

	promoResult, err := e.promotions.Evaluate(ctx, offer.ID, buyer.Address, requestedCollateralPercent)
	if err != nil {
		return nil, err
	}

	baseAmount := offer.UnitPrice.Mul(quantity)
	chargeAmount := baseAmount
	discountPercent := 0
	var promotionID *string

	if requestedCollateralPercent < 100 {
		// Partial collateral and discounts are mutually exclusive; the
		// evaluator already refuses partial orders, this just scales the
		// charge.
		chargeAmount = baseAmount.Mul(decimal.NewFromInt(int64(requestedCollateralPercent))).Div(decimal.NewFromInt(100))
	} else if promoResult.Eligible {
		discountPercent = promoResult.DiscountPercent
		promotionID = promoResult.PromotionID
		chargeAmount = baseAmount.Mul(decimal.NewFromInt(int64(100 - discountPercent))).Div(decimal.NewFromInt(100))
	}

	if err := e.ledger.Debit(buyerWalletID, offer.ExTokenID, chargeAmount); err != nil {
		return nil, err
	}

	if err := e.offers.ReserveQuantity(offer.ID, quantity); err != nil {
		e.refund(buyerWalletID, offer.ExTokenID, chargeAmount, "offer reservation failed")
		return nil, err
	}

	order := model.Order{
		OrderID:           uuid.New().String(),
		OfferID:           offer.ID,
		BuyerWalletID:     buyerWalletID,
		Quantity:          quantity,
		CollateralPercent: requestedCollateralPercent,
		DiscountPercent:   discountPercent,
		PromotionID:       promotionID,
		ChargeAmount:      chargeAmount,
		Status:            model.OrderStatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	if err := e.orders.CreateOrder(order); err != nil {
		if releaseErr := e.offers.ReleaseQuantity(offer.ID, quantity); releaseErr != nil {
			e.logger.Error("Consistency hazard: failed to release reservation after order insert failure",
				zap.String("offer_id", offer.ID),
				zap.String("quantity", quantity.String()),
				zap.Error(releaseErr))
		}
		e.refund(buyerWalletID, offer.ExTokenID, chargeAmount, "order insert failed")
		return nil, err
	}

	e.logger.Info("Created order",
		zap.String("order_id", order.OrderID),
		zap.String("offer_id", offer.ID),
		zap.String("buyer_wallet_id", buyerWalletID),
		zap.String("charge_amount", chargeAmount.String()),
		zap.Int("collateral_percent", requestedCollateralPercent),
		zap.Int("discount_percent", discountPercent))

	e.emit(events.EventTypeOrderCreated, buyerWalletID, events.OrderCreatedEvent{
		OrderID:           order.OrderID,
		OfferID:           offer.ID,
		BuyerWalletID:     buyerWalletID,
		Quantity:          quantity.String(),
		ChargeAmount:      chargeAmount.String(),
		CollateralPercent: requestedCollateralPercent,
		DiscountPercent:   discountPercent,
		Timestamp:         time.Now().UTC(),
	})

	return &order, nil
}

// TopUpCollateral raises the order's collateral to 100% in a single step,
// debiting the remaining fraction of the full price. Partial top-ups are not
// supported.
func (e *Engine) TopUpCollateral(ctx context.Context, orderID, buyerWalletID string) (*model.Order, error) {
	order, err := e.orders.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, market.ErrOrderNotFound
	}
	if order.BuyerWalletID != buyerWalletID {
		return nil, market.ErrOrderNotOwned
	}
	if order.Status != model.OrderStatusPending {
		return nil, market.ErrOrderNotPending
	}
	if order.CollateralPercent >= 100 {
		return nil, market.ErrAlreadyFullyCollateralized
	}

	offer, err := e.offers.GetOffer(order.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, market.ErrOfferNotFound
	}

	remainingPercent := 100 - order.CollateralPercent
	fullAmount := offer.UnitPrice.Mul(order.Quantity)
	topUpAmount := fullAmount.Mul(decimal.NewFromInt(int64(remainingPercent))).Div(decimal.NewFromInt(100))

	if err := e.ledger.Debit(buyerWalletID, offer.ExTokenID, topUpAmount); err != nil {
		return nil, err
	}

	applied, err := e.orders.CompleteCollateral(orderID)
	if err != nil {
		e.refund(buyerWalletID, offer.ExTokenID, topUpAmount, "collateral update failed")
		return nil, err
	}
	if !applied {
		// Lost a race with cancellation or another top-up. Refund and
		// report the state the order is actually in.
		e.refund(buyerWalletID, offer.ExTokenID, topUpAmount, "collateral update lost race")
		current, err := e.orders.GetOrderByID(orderID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, market.ErrOrderNotFound
		}
		if current.Status != model.OrderStatusPending {
			return nil, market.ErrOrderNotPending
		}
		return nil, market.ErrAlreadyFullyCollateralized
	}

	order.CollateralPercent = 100

	e.logger.Info("Topped up order collateral",
		zap.String("order_id", orderID),
		zap.String("top_up_amount", topUpAmount.String()))

	e.emit(events.EventTypeCollateralToppedUp, buyerWalletID, events.CollateralToppedUpEvent{
		OrderID:       orderID,
		BuyerWalletID: buyerWalletID,
		TopUpAmount:   topUpAmount.String(),
		Timestamp:     time.Now().UTC(),
	})

	return order, nil
}

// refund is the compensating credit for a debit whose follow-up mutation did
// not apply. A refund failure leaves a debited wallet with nothing to show
// for it, which is the one condition that must reach an operator.
func (e *Engine) refund(walletID, exTokenID string, amount decimal.Decimal, reason string) {
	if err := e.ledger.Credit(walletID, exTokenID, amount); err != nil {
		e.logger.Error("Consistency hazard: compensating credit failed",
			zap.String("wallet_id", walletID),
			zap.String("ex_token_id", exTokenID),
			zap.String("amount", amount.String()),
			zap.String("reason", reason),
			zap.Error(err))
	}
}

func (e *Engine) emit(eventType, walletID string, payload any) {
	if e.outbox == nil {
		return
	}
	if err := e.outbox.StoreEvent(eventType, walletID, payload); err != nil {
		e.logger.Error("Failed to store outbox event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
