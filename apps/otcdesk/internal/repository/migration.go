package repository

import (
	"database/sql"
	"fmt"
)

// InitMigration initializes the database. In production, this would use a proper migration
// library like go-migrate
func InitMigration(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			wallet_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			address VARCHAR(42) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(address)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallets_address_lower ON wallets (LOWER(address))`,
		`CREATE TABLE IF NOT EXISTS ex_tokens (
			ex_token_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			chain_id BIGINT NOT NULL,
			address VARCHAR(42) NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			decimals INTEGER NOT NULL DEFAULT 18,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(chain_id, address)
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_balances (
			wallet_id UUID NOT NULL REFERENCES wallets(wallet_id),
			ex_token_id UUID NOT NULL REFERENCES ex_tokens(ex_token_id),
			balance DECIMAL(78,18) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (wallet_id, ex_token_id)
		)`,
		`CREATE TABLE IF NOT EXISTS offers (
			offer_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			seller_wallet_id UUID NOT NULL REFERENCES wallets(wallet_id),
			ex_token_id UUID NOT NULL REFERENCES ex_tokens(ex_token_id),
			unit_price DECIMAL(78,18) NOT NULL,
			total_quantity DECIMAL(78,18) NOT NULL,
			filled_quantity DECIMAL(78,18) NOT NULL DEFAULT 0,
			min_collateral_percent INTEGER NOT NULL DEFAULT 25,
			settle_duration_hours INTEGER NOT NULL DEFAULT 24,
			status VARCHAR(20) NOT NULL DEFAULT 'open',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			CHECK (filled_quantity >= 0 AND filled_quantity <= total_quantity)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id UUID PRIMARY KEY,
			offer_id UUID NOT NULL REFERENCES offers(offer_id),
			buyer_wallet_id UUID NOT NULL REFERENCES wallets(wallet_id),
			quantity DECIMAL(78,18) NOT NULL,
			collateral_percent INTEGER NOT NULL CHECK (collateral_percent BETWEEN 25 AND 100),
			discount_percent INTEGER NOT NULL DEFAULT 0,
			promotion_id UUID,
			charge_amount DECIMAL(78,18) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders (buyer_wallet_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS promotions (
			promotion_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			offer_id UUID NOT NULL REFERENCES offers(offer_id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			discount_percent INTEGER NOT NULL CHECK (discount_percent BETWEEN 0 AND 100),
			check_type VARCHAR(10) NOT NULL,
			check_eligible_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_promotions_offer_active ON promotions (offer_id, is_active, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS deposit_ledger (
			tx_hash VARCHAR(66) PRIMARY KEY,
			chain_id BIGINT NOT NULL,
			log_index BIGINT NOT NULL,
			wallet_id UUID NOT NULL REFERENCES wallets(wallet_id),
			ex_token_id UUID NOT NULL REFERENCES ex_tokens(ex_token_id),
			user_address VARCHAR(42) NOT NULL,
			token_address VARCHAR(42) NOT NULL,
			raw_amount DECIMAL(78,0) NOT NULL,
			formatted_amount DECIMAL(78,18) NOT NULL,
			balance DECIMAL(78,18) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS event_outbox (
			event_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			event_type VARCHAR(40) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'unsent',
			wallet_id UUID NOT NULL,
			event_blob JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_outbox_status ON event_outbox (status, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}
