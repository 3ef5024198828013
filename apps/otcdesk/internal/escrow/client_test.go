package escrow

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/chains"
	"otcdesk/apps/otcdesk/internal/market"
	"otcdesk/apps/otcdesk/internal/model"
)

type stubTokenSource struct {
	tokens map[string]*model.ExToken
}

func (s *stubTokenSource) GetTokenByAddress(chainID int64, address string) (*model.ExToken, error) {
	for addr, token := range s.tokens {
		if token.ChainID == chainID && strings.EqualFold(addr, address) {
			return token, nil
		}
	}
	return nil, nil
}

const usdcAddress = "0x9999999999999999999999999999999999999999"

func newTestClient(t *testing.T) *Client {
	t.Helper()

	tokens := &stubTokenSource{tokens: map[string]*model.ExToken{
		usdcAddress: {ExTokenID: "usdc", ChainID: 1, Address: usdcAddress, Decimals: 6},
	}}

	client, err := NewClient(chains.NewNetworkRegistry(), chains.NewContractRegistry(), tokens, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientParsesABIs(t *testing.T) {
	client := newTestClient(t)

	if _, ok := client.escrowABI.Events["Deposit"]; !ok {
		t.Error("escrow event ABI missing Deposit")
	}
	if _, ok := client.escrowFnABI.Methods["deposit"]; !ok {
		t.Error("escrow function ABI missing deposit")
	}
	if _, ok := client.erc20ABI.Methods["approve"]; !ok {
		t.Error("ERC20 ABI missing approve")
	}
	if client.escrowABI.Events["Deposit"].ID != DepositEventSig {
		t.Error("deposit event signature does not match ABI")
	}
}

func TestParseDepositUnknownNetwork(t *testing.T) {
	client := newTestClient(t)

	_, err := client.ParseDeposit(context.Background(), 999, "0xabc")
	if !errors.Is(err, market.ErrNetworkNotFound) {
		t.Fatalf("expected ErrNetworkNotFound, got %v", err)
	}
}

func TestScaleToTokenUnits(t *testing.T) {
	client := newTestClient(t)

	cases := []struct {
		amount string
		want   *big.Int
	}{
		{"1.5", big.NewInt(1500000)},
		{"100", big.NewInt(100000000)},
		{"0.000001", big.NewInt(1)},
	}

	for _, tc := range cases {
		got, err := client.scaleToTokenUnits(1, usdcAddress, decimal.RequireFromString(tc.amount))
		if err != nil {
			t.Fatalf("scaleToTokenUnits(%s) failed: %v", tc.amount, err)
		}
		if got.Cmp(tc.want) != 0 {
			t.Errorf("scaleToTokenUnits(%s) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}

func TestScaleToTokenUnitsUnknownToken(t *testing.T) {
	client := newTestClient(t)

	_, err := client.scaleToTokenUnits(1, "0x4444444444444444444444444444444444444444", decimal.NewFromInt(1))
	if !errors.Is(err, market.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestBuildDepositUnknownEscrow(t *testing.T) {
	client := newTestClient(t)

	_, err := client.BuildDeposit(context.Background(), 999, usdcAddress, decimal.NewFromInt(1), "0x1111111111111111111111111111111111111111")
	if !errors.Is(err, market.ErrEscrowNotFound) {
		t.Fatalf("expected ErrEscrowNotFound, got %v", err)
	}
}
