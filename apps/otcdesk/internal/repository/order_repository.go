package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

func (r *OrderRepository) CreateOrder(order model.Order) error {
	_, err := r.db.Exec(`
		INSERT INTO orders (order_id, offer_id, buyer_wallet_id, quantity, collateral_percent, discount_percent, promotion_id, charge_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.OrderID, order.OfferID, order.BuyerWalletID, order.Quantity, order.CollateralPercent,
		order.DiscountPercent, order.PromotionID, order.ChargeAmount, order.Status)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Info("Created order",
		zap.String("order_id", order.OrderID),
		zap.String("offer_id", order.OfferID),
		zap.String("buyer_wallet_id", order.BuyerWalletID),
		zap.Int("collateral_percent", order.CollateralPercent))
	return nil
}

func (r *OrderRepository) GetOrderByID(orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.QueryRow(`
		SELECT order_id, offer_id, buyer_wallet_id, quantity, collateral_percent, discount_percent, promotion_id, charge_amount, status, created_at
		FROM orders
		WHERE order_id = $1
	`, orderID).Scan(&order.OrderID, &order.OfferID, &order.BuyerWalletID, &order.Quantity, &order.CollateralPercent,
		&order.DiscountPercent, &order.PromotionID, &order.ChargeAmount, &order.Status, &order.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}

	return &order, nil
}

// CompleteCollateral raises the order to full collateral. The guard keeps a
// concurrent cancellation or duplicate top-up from debiting twice: the update
// applies only while the order is still pending and below 100.
func (r *OrderRepository) CompleteCollateral(orderID string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE orders
		SET collateral_percent = 100
		WHERE order_id = $1 AND status = 'pending' AND collateral_percent < 100
	`, orderID)

	if err != nil {
		return false, fmt.Errorf("failed to complete order collateral: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read collateral update result: %w", err)
	}

	if rows == 1 {
		r.logger.Info("Completed order collateral", zap.String("order_id", orderID))
	}
	return rows == 1, nil
}

func (r *OrderRepository) GetOrdersByBuyer(buyerWalletID string, limit int) ([]model.Order, error) {
	rows, err := r.db.Query(`
		SELECT order_id, offer_id, buyer_wallet_id, quantity, collateral_percent, discount_percent, promotion_id, charge_amount, status, created_at
		FROM orders
		WHERE buyer_wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, buyerWalletID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders by buyer: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		if err := rows.Scan(&order.OrderID, &order.OfferID, &order.BuyerWalletID, &order.Quantity, &order.CollateralPercent,
			&order.DiscountPercent, &order.PromotionID, &order.ChargeAmount, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}
