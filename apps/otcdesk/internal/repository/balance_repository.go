package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/market"
	"otcdesk/apps/otcdesk/internal/model"
)

// BalanceRepository is the wallet balance ledger. Every mutation is a single
// conditional statement so that concurrent debits cannot drive a balance
// negative and concurrent credits cannot lose updates.
type BalanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewBalanceRepository(db *sql.DB, logger *zap.Logger) *BalanceRepository {
	return &BalanceRepository{db: db, logger: logger}
}

func (r *BalanceRepository) GetBalance(walletID, exTokenID string) (*model.WalletBalance, error) {
	var balance model.WalletBalance
	err := r.db.QueryRow(`
		SELECT wallet_id, ex_token_id, balance, updated_at
		FROM wallet_balances
		WHERE wallet_id = $1 AND ex_token_id = $2
	`, walletID, exTokenID).Scan(&balance.WalletID, &balance.ExTokenID, &balance.Balance, &balance.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	return &balance, nil
}

// Debit subtracts amount from the balance iff the remaining balance stays
// non-negative. The check and the write are one statement; a stale read can
// never overdraw the row.
func (r *BalanceRepository) Debit(walletID, exTokenID string, amount decimal.Decimal) error {
	result, err := r.db.Exec(`
		UPDATE wallet_balances
		SET balance = balance - $3, updated_at = NOW()
		WHERE wallet_id = $1 AND ex_token_id = $2 AND balance >= $3
	`, walletID, exTokenID, amount)

	if err != nil {
		return fmt.Errorf("failed to debit wallet balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read debit result: %w", err)
	}
	if rows == 0 {
		return market.ErrInsufficientBalance
	}

	r.logger.Info("Debited wallet balance",
		zap.String("wallet_id", walletID),
		zap.String("ex_token_id", exTokenID),
		zap.String("amount", amount.String()))
	return nil
}

// Credit adds amount to the balance, creating the row on first use.
func (r *BalanceRepository) Credit(walletID, exTokenID string, amount decimal.Decimal) error {
	_, err := r.db.Exec(`
		INSERT INTO wallet_balances (wallet_id, ex_token_id, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (wallet_id, ex_token_id) DO UPDATE SET
			balance = wallet_balances.balance + EXCLUDED.balance,
			updated_at = NOW()
	`, walletID, exTokenID, amount)

	if err != nil {
		return fmt.Errorf("failed to credit wallet balance: %w", err)
	}

	r.logger.Info("Credited wallet balance",
		zap.String("wallet_id", walletID),
		zap.String("ex_token_id", exTokenID),
		zap.String("amount", amount.String()))
	return nil
}

func (r *BalanceRepository) GetBalancesByWallet(walletID string) ([]model.WalletBalance, error) {
	rows, err := r.db.Query(`
		SELECT wallet_id, ex_token_id, balance, updated_at
		FROM wallet_balances
		WHERE wallet_id = $1
		ORDER BY ex_token_id
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet balances: %w", err)
	}
	defer rows.Close()

	var balances []model.WalletBalance
	for rows.Next() {
		var balance model.WalletBalance
		if err := rows.Scan(&balance.WalletID, &balance.ExTokenID, &balance.Balance, &balance.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet balance: %w", err)
		}
		balances = append(balances, balance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet balances: %w", err)
	}

	return balances, nil
}
