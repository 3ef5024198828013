package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/model"
)

type TokenRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTokenRepository(db *sql.DB, logger *zap.Logger) *TokenRepository {
	return &TokenRepository{db: db, logger: logger}
}

func (r *TokenRepository) GetTokenByAddress(chainID int64, address string) (*model.ExToken, error) {
	var token model.ExToken
	err := r.db.QueryRow(`
		SELECT ex_token_id, chain_id, address, symbol, decimals, created_at
		FROM ex_tokens
		WHERE chain_id = $1 AND LOWER(address) = LOWER($2)
	`, chainID, address).Scan(&token.ExTokenID, &token.ChainID, &token.Address, &token.Symbol, &token.Decimals, &token.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token by address: %w", err)
	}

	return &token, nil
}

func (r *TokenRepository) GetTokenByID(exTokenID string) (*model.ExToken, error) {
	var token model.ExToken
	err := r.db.QueryRow(`
		SELECT ex_token_id, chain_id, address, symbol, decimals, created_at
		FROM ex_tokens
		WHERE ex_token_id = $1
	`, exTokenID).Scan(&token.ExTokenID, &token.ChainID, &token.Address, &token.Symbol, &token.Decimals, &token.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token by ID: %w", err)
	}

	return &token, nil
}

func (r *TokenRepository) RegisterToken(token model.ExToken) (string, error) {
	var exTokenID string
	err := r.db.QueryRow(`
		INSERT INTO ex_tokens (chain_id, address, symbol, decimals)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id, address) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals
		RETURNING ex_token_id
	`, token.ChainID, token.Address, token.Symbol, token.Decimals).Scan(&exTokenID)

	if err != nil {
		return "", fmt.Errorf("failed to register token: %w", err)
	}

	r.logger.Info("Registered settlement token",
		zap.String("ex_token_id", exTokenID),
		zap.String("symbol", token.Symbol),
		zap.Int64("chain_id", token.ChainID))
	return exTokenID, nil
}
