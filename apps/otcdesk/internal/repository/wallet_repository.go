package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

type WalletRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewWalletRepository(db *sql.DB, logger *zap.Logger) *WalletRepository {
	return &WalletRepository{db: db, logger: logger}
}

// GetWalletByAddress resolves an on-chain address to a registered wallet.
// Addresses are matched case-insensitively since EIP-55 checksumming makes
// the same address arrive in mixed casings.
func (r *WalletRepository) GetWalletByAddress(address string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.QueryRow(`
		SELECT wallet_id, address, created_at
		FROM wallets
		WHERE LOWER(address) = LOWER($1)
	`, address).Scan(&wallet.WalletID, &wallet.Address, &wallet.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet by address: %w", err)
	}

	return &wallet, nil
}

func (r *WalletRepository) GetWalletByID(walletID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.QueryRow(`
		SELECT wallet_id, address, created_at
		FROM wallets
		WHERE wallet_id = $1
	`, walletID).Scan(&wallet.WalletID, &wallet.Address, &wallet.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet by ID: %w", err)
	}

	return &wallet, nil
}

func (r *WalletRepository) RegisterWallet(address string) (string, error) {
	var walletID string
	err := r.db.QueryRow(`
		INSERT INTO wallets (address)
		VALUES ($1)
		ON CONFLICT (address) DO UPDATE SET address = EXCLUDED.address
		RETURNING wallet_id
	`, address).Scan(&walletID)

	if err != nil {
		return "", fmt.Errorf("failed to register wallet: %w", err)
	}

	r.logger.Info("Registered wallet",
		zap.String("wallet_id", walletID),
		zap.String("address", address))
	return walletID, nil
}
