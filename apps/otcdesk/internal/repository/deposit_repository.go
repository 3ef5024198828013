package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

type DepositRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDepositRepository(db *sql.DB, logger *zap.Logger) *DepositRepository {
	return &DepositRepository{db: db, logger: logger}
}

func (r *DepositRepository) FindByTxHash(txHash string) (*model.DepositEntry, error) {
	var entry model.DepositEntry
	err := r.db.QueryRow(`
		SELECT tx_hash, chain_id, log_index, wallet_id, ex_token_id, user_address, token_address, raw_amount, formatted_amount, balance, created_at
		FROM deposit_ledger
		WHERE tx_hash = $1
	`, txHash).Scan(&entry.TxHash, &entry.ChainID, &entry.LogIndex, &entry.WalletID, &entry.ExTokenID,
		&entry.UserAddress, &entry.TokenAddress, &entry.RawAmount, &entry.FormattedAmount, &entry.Balance, &entry.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deposit entry: %w", err)
	}

	return &entry, nil
}

// Apply credits the wallet balance and appends the ledger entry in a single
// transaction, keyed by tx_hash. The bool result reports whether this call
// applied the deposit: a duplicate hash returns the previously recorded entry
// with applied=false and leaves the balance untouched.
//
// A first-time (wallet, token) row is seeded with the raw on-chain amount; an
// existing row is incremented by the formatted amount. Both branches are kept
// as observed upstream; see the unit-asymmetry note in DESIGN.md.
func (r *DepositRepository) Apply(entry model.DepositEntry) (*model.DepositEntry, bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin deposit transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if tx.Commit() succeeds

	// The ledger insert doubles as the idempotency gate. A concurrent
	// duplicate blocks on the unique index until the winner commits, then
	// affects zero rows.
	result, err := tx.Exec(`
		INSERT INTO deposit_ledger (tx_hash, chain_id, log_index, wallet_id, ex_token_id, user_address, token_address, raw_amount, formatted_amount, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
		ON CONFLICT (tx_hash) DO NOTHING
	`, entry.TxHash, entry.ChainID, entry.LogIndex, entry.WalletID, entry.ExTokenID,
		entry.UserAddress, entry.TokenAddress, entry.RawAmount, entry.FormattedAmount)
	if err != nil {
		return nil, false, fmt.Errorf("failed to append deposit entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read deposit insert result: %w", err)
	}
	if rows == 0 {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			return nil, false, fmt.Errorf("failed to roll back duplicate deposit: %w", err)
		}
		existing, err := r.FindByTxHash(entry.TxHash)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("deposit entry for %s vanished after conflict", entry.TxHash)
		}
		r.logger.Info("Skipped duplicate deposit", zap.String("tx_hash", entry.TxHash))
		return existing, false, nil
	}

	newBalance := entry

	err = tx.QueryRow(`
		INSERT INTO wallet_balances (wallet_id, ex_token_id, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (wallet_id, ex_token_id) DO UPDATE SET
			balance = wallet_balances.balance + $4,
			updated_at = NOW()
		RETURNING balance
	`, entry.WalletID, entry.ExTokenID, entry.RawAmount, entry.FormattedAmount).Scan(&newBalance.Balance)
	if err != nil {
		return nil, false, fmt.Errorf("failed to credit deposit: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE deposit_ledger SET balance = $2 WHERE tx_hash = $1
	`, entry.TxHash, newBalance.Balance); err != nil {
		return nil, false, fmt.Errorf("failed to record resulting balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit deposit: %w", err)
	}

	r.logger.Info("Applied deposit",
		zap.String("tx_hash", entry.TxHash),
		zap.String("wallet_id", entry.WalletID),
		zap.String("formatted_amount", entry.FormattedAmount.String()),
		zap.String("balance", newBalance.Balance.String()))
	return &newBalance, true, nil
}
