package reconciler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/escrow"
	"otcdesk/apps/otcdesk/internal/events"
	"otcdesk/apps/otcdesk/internal/market"
	"otcdesk/apps/otcdesk/internal/model"
)

// TxParser extracts a recognized escrow deposit from a confirmed on-chain
// transaction.
type TxParser interface {
	ParseDeposit(ctx context.Context, chainID int64, txHash string) (escrow.DepositEvent, error)
}

// WalletSource resolves on-chain addresses to registered wallets.
type WalletSource interface {
	GetWalletByAddress(address string) (*model.Wallet, error)
}

// TokenSource resolves token contract addresses to registered settlement
// tokens.
type TokenSource interface {
	GetTokenByAddress(chainID int64, address string) (*model.ExToken, error)
}

// DepositLedger applies a deposit to the balance ledger exactly once per
// tx hash: the credit and the ledger append happen atomically, and a
// duplicate hash returns the previously recorded entry without crediting.
type DepositLedger interface {
	FindByTxHash(txHash string) (*model.DepositEntry, error)
	Apply(entry model.DepositEntry) (*model.DepositEntry, bool, error)
}

// EventSink records outbox events for asynchronous publishing.
type EventSink interface {
	StoreEvent(eventType, walletID string, payload any) error
}

// Result is the outcome of reconciling one deposit confirmation.
type Result struct {
	TxHash          string
	WalletID        string
	ExTokenID       string
	FormattedAmount decimal.Decimal
	NewBalance      decimal.Decimal
	AlreadyApplied  bool
}

// Reconciler ingests blockchain deposit confirmations. The chain is a
// replayable event source, so the same confirmation may arrive any number of
// times; exactly one credit is ever applied per transaction hash.
type Reconciler struct {
	parser  TxParser
	wallets WalletSource
	tokens  TokenSource
	ledger  DepositLedger
	outbox  EventSink
	logger  *zap.Logger
}

func NewReconciler(parser TxParser, wallets WalletSource, tokens TokenSource, ledger DepositLedger, outbox EventSink, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		parser:  parser,
		wallets: wallets,
		tokens:  tokens,
		ledger:  ledger,
		outbox:  outbox,
		logger:  logger,
	}
}

// Reconcile verifies txHash against the chain, resolves wallet and token
// identity, and credits the balance ledger. Every failure before the credit
// leaves no side effect and is safe to retry.
func (r *Reconciler) Reconcile(ctx context.Context, txHash string, chainID int64) (*Result, error) {
	event, err := r.parser.ParseDeposit(ctx, chainID, txHash)
	if err != nil {
		return nil, err
	}
	if !event.Found {
		return nil, market.ErrDepositEventNotFound
	}

	// Cheap idempotency check before touching the chain-derived identities;
	// the ledger's unique tx_hash insert is the authoritative gate.
	if existing, err := r.ledger.FindByTxHash(txHash); err != nil {
		return nil, err
	} else if existing != nil {
		return recordedResult(existing), nil
	}

	wallet, err := r.wallets.GetWalletByAddress(event.UserAddress)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, market.ErrWalletNotFound
	}

	token, err := r.tokens.GetTokenByAddress(chainID, event.TokenAddress)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, market.ErrTokenNotFound
	}

	entry, applied, err := r.ledger.Apply(model.DepositEntry{
		TxHash:          txHash,
		ChainID:         chainID,
		LogIndex:        event.LogIndex,
		WalletID:        wallet.WalletID,
		ExTokenID:       token.ExTokenID,
		UserAddress:     event.UserAddress,
		TokenAddress:    event.TokenAddress,
		RawAmount:       event.RawAmount,
		FormattedAmount: event.FormattedAmount,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return recordedResult(entry), nil
	}

	r.logger.Info("Reconciled deposit",
		zap.String("tx_hash", txHash),
		zap.Int64("chain_id", chainID),
		zap.String("wallet_id", wallet.WalletID),
		zap.String("formatted_amount", event.FormattedAmount.String()),
		zap.String("balance", entry.Balance.String()))

	if r.outbox != nil {
		if err := r.outbox.StoreEvent(events.EventTypeDepositReconciled, wallet.WalletID, events.DepositReconciledEvent{
			TxHash:          txHash,
			ChainID:         chainID,
			WalletID:        wallet.WalletID,
			ExTokenID:       token.ExTokenID,
			FormattedAmount: event.FormattedAmount.String(),
			Balance:         entry.Balance.String(),
			Timestamp:       time.Now().UTC(),
		}); err != nil {
			r.logger.Error("Failed to store outbox event",
				zap.String("event_type", events.EventTypeDepositReconciled),
				zap.Error(err))
		}
	}

	result := recordedResult(entry)
	result.AlreadyApplied = false
	return result, nil
}

func recordedResult(entry *model.DepositEntry) *Result {
	return &Result{
		TxHash:          entry.TxHash,
		WalletID:        entry.WalletID,
		ExTokenID:       entry.ExTokenID,
		FormattedAmount: entry.FormattedAmount,
		NewBalance:      entry.Balance,
		AlreadyApplied:  true,
	}
}
