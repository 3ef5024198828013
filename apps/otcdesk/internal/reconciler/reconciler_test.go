package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/escrow"
	"otcdesk/apps/otcdesk/internal/market"
	"otcdesk/apps/otcdesk/internal/model"
)

type fakeParser struct {
	events map[string]escrow.DepositEvent
	err    error
}

func (p *fakeParser) ParseDeposit(ctx context.Context, chainID int64, txHash string) (escrow.DepositEvent, error) {
	if p.err != nil {
		return escrow.DepositEvent{}, p.err
	}
	return p.events[txHash], nil
}

type fakeWalletSource struct {
	wallets map[string]*model.Wallet
}

func (s *fakeWalletSource) GetWalletByAddress(address string) (*model.Wallet, error) {
	for addr, wallet := range s.wallets {
		if strings.EqualFold(addr, address) {
			return wallet, nil
		}
	}
	return nil, nil
}

type fakeTokenSource struct {
	tokens map[string]*model.ExToken
}

func (s *fakeTokenSource) GetTokenByAddress(chainID int64, address string) (*model.ExToken, error) {
	for addr, token := range s.tokens {
		if token.ChainID == chainID && strings.EqualFold(addr, address) {
			return token, nil
		}
	}
	return nil, nil
}

// fakeDepositLedger reproduces the repository's transactional semantics: the
// tx hash is the idempotency gate, a first-ever balance row is seeded with the
// raw amount, and an existing row is incremented by the formatted amount.
type fakeDepositLedger struct {
	mu       sync.Mutex
	entries  map[string]*model.DepositEntry
	balances map[string]decimal.Decimal
	applies  int
}

func newFakeDepositLedger() *fakeDepositLedger {
	return &fakeDepositLedger{
		entries:  make(map[string]*model.DepositEntry),
		balances: make(map[string]decimal.Decimal),
	}
}

func (l *fakeDepositLedger) FindByTxHash(txHash string) (*model.DepositEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[txHash]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (l *fakeDepositLedger) Apply(entry model.DepositEntry) (*model.DepositEntry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.entries[entry.TxHash]; ok {
		copied := *existing
		return &copied, false, nil
	}

	key := entry.WalletID + "|" + entry.ExTokenID
	balance, exists := l.balances[key]
	if exists {
		balance = balance.Add(entry.FormattedAmount)
	} else {
		balance = entry.RawAmount
	}
	l.balances[key] = balance
	l.applies++

	entry.Balance = balance
	l.entries[entry.TxHash] = &entry
	copied := entry
	return &copied, true, nil
}

type fakeEventSink struct {
	mu     sync.Mutex
	events []string
}

func (s *fakeEventSink) StoreEvent(eventType, walletID string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType)
	return nil
}

const (
	testTxHash    = "0xaaa1"
	testChainID   = int64(1)
	testUserAddr  = "0x1111111111111111111111111111111111111111"
	testTokenAddr = "0x9999999999999999999999999999999999999999"
)

type reconcilerHarness struct {
	reconciler *Reconciler
	parser     *fakeParser
	ledger     *fakeDepositLedger
	sink       *fakeEventSink
}

func newReconcilerHarness(t *testing.T) *reconcilerHarness {
	t.Helper()

	parser := &fakeParser{events: map[string]escrow.DepositEvent{
		testTxHash: {
			Found:           true,
			UserAddress:     testUserAddr,
			TokenAddress:    testTokenAddr,
			RawAmount:       decimal.RequireFromString("100000000"),
			FormattedAmount: decimal.RequireFromString("100"),
			LogIndex:        3,
		},
	}}
	wallets := &fakeWalletSource{wallets: map[string]*model.Wallet{
		testUserAddr: {WalletID: "wallet-1", Address: testUserAddr},
	}}
	tokens := &fakeTokenSource{tokens: map[string]*model.ExToken{
		testTokenAddr: {ExTokenID: "usdc", ChainID: testChainID, Address: testTokenAddr, Decimals: 6},
	}}
	ledger := newFakeDepositLedger()
	sink := &fakeEventSink{}

	return &reconcilerHarness{
		reconciler: NewReconciler(parser, wallets, tokens, ledger, sink, zap.NewNop()),
		parser:     parser,
		ledger:     ledger,
		sink:       sink,
	}
}

func TestReconcileNewDeposit(t *testing.T) {
	h := newReconcilerHarness(t)

	result, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if result.AlreadyApplied {
		t.Error("first reconciliation reported as already applied")
	}
	if result.WalletID != "wallet-1" || result.ExTokenID != "usdc" {
		t.Errorf("wrong identities: %s / %s", result.WalletID, result.ExTokenID)
	}
	// First balance row is seeded with the raw amount.
	if !result.NewBalance.Equal(decimal.RequireFromString("100000000")) {
		t.Errorf("expected new balance 100000000, got %s", result.NewBalance)
	}
	if h.ledger.applies != 1 {
		t.Errorf("expected exactly 1 credit, got %d", h.ledger.applies)
	}
	if len(h.sink.events) != 1 || h.sink.events[0] != "deposit_reconciled" {
		t.Errorf("expected one deposit_reconciled event, got %v", h.sink.events)
	}
}

func TestReconcileDuplicateIsIdempotent(t *testing.T) {
	h := newReconcilerHarness(t)

	first, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID)
	if err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		repeat, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID)
		if err != nil {
			t.Fatalf("repeat Reconcile failed: %v", err)
		}
		if !repeat.AlreadyApplied {
			t.Error("duplicate reconciliation not flagged as already applied")
		}
		if !repeat.NewBalance.Equal(first.NewBalance) || repeat.WalletID != first.WalletID {
			t.Errorf("duplicate result diverged: %+v vs %+v", repeat, first)
		}
	}

	if h.ledger.applies != 1 {
		t.Errorf("expected exactly 1 credit after duplicates, got %d", h.ledger.applies)
	}
	if len(h.sink.events) != 1 {
		t.Errorf("expected exactly 1 event after duplicates, got %d", len(h.sink.events))
	}
}

func TestReconcileConcurrentDuplicates(t *testing.T) {
	h := newReconcilerHarness(t)

	var wg sync.WaitGroup
	results := make([]*Result, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID)
			if err != nil {
				t.Errorf("Reconcile failed: %v", err)
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	if h.ledger.applies != 1 {
		t.Fatalf("expected exactly 1 credit under concurrency, got %d", h.ledger.applies)
	}
	applied := 0
	for _, result := range results {
		if result == nil {
			continue
		}
		if !result.AlreadyApplied {
			applied++
		}
		if !result.NewBalance.Equal(decimal.RequireFromString("100000000")) {
			t.Errorf("diverging balance: %s", result.NewBalance)
		}
	}
	if applied != 1 {
		t.Errorf("expected exactly 1 caller to observe the credit, got %d", applied)
	}
}

func TestReconcileExistingBalanceGetsFormattedAmount(t *testing.T) {
	h := newReconcilerHarness(t)
	h.parser.events["0xaaa2"] = escrow.DepositEvent{
		Found:           true,
		UserAddress:     testUserAddr,
		TokenAddress:    testTokenAddr,
		RawAmount:       decimal.RequireFromString("50000000"),
		FormattedAmount: decimal.RequireFromString("50"),
		LogIndex:        1,
	}

	if _, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID); err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}

	second, err := h.reconciler.Reconcile(context.Background(), "0xaaa2", testChainID)
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}

	// Existing balance row: incremented by the formatted amount only.
	want := decimal.RequireFromString("100000050")
	if !second.NewBalance.Equal(want) {
		t.Errorf("expected balance %s, got %s", want, second.NewBalance)
	}
	if h.ledger.applies != 2 {
		t.Errorf("expected 2 credits, got %d", h.ledger.applies)
	}
}

func TestReconcileDepositEventNotFound(t *testing.T) {
	h := newReconcilerHarness(t)

	_, err := h.reconciler.Reconcile(context.Background(), "0xunknown", testChainID)
	if !errors.Is(err, market.ErrDepositEventNotFound) {
		t.Fatalf("expected ErrDepositEventNotFound, got %v", err)
	}
	if h.ledger.applies != 0 {
		t.Errorf("credit applied for unrecognized transaction")
	}
}

func TestReconcileUnregisteredWallet(t *testing.T) {
	h := newReconcilerHarness(t)
	h.parser.events[testTxHash] = escrow.DepositEvent{
		Found:           true,
		UserAddress:     "0x3333333333333333333333333333333333333333",
		TokenAddress:    testTokenAddr,
		RawAmount:       decimal.NewFromInt(1),
		FormattedAmount: decimal.NewFromInt(1),
	}

	_, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID)
	if !errors.Is(err, market.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
	if h.ledger.applies != 0 {
		t.Errorf("credit applied for unregistered wallet")
	}
}

func TestReconcileUnregisteredToken(t *testing.T) {
	h := newReconcilerHarness(t)
	h.parser.events[testTxHash] = escrow.DepositEvent{
		Found:           true,
		UserAddress:     testUserAddr,
		TokenAddress:    "0x4444444444444444444444444444444444444444",
		RawAmount:       decimal.NewFromInt(1),
		FormattedAmount: decimal.NewFromInt(1),
	}

	_, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID)
	if !errors.Is(err, market.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if h.ledger.applies != 0 {
		t.Errorf("credit applied for unregistered token")
	}
}

func TestReconcileRetryableParserError(t *testing.T) {
	h := newReconcilerHarness(t)
	h.parser.err = fmt.Errorf("%w: rpc timeout", market.ErrRetryable)

	_, err := h.reconciler.Reconcile(context.Background(), testTxHash, testChainID)
	if err == nil || !market.Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if h.ledger.applies != 0 {
		t.Errorf("credit applied despite parser failure")
	}
}
