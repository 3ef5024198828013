package escrow

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"otcdesk/apps/otcdesk/internal/market"
)

const (
	// Default gas limit for transactions
	DepositGasLimit = "200000"
	ApproveGasLimit = "60000"
)

// Escrow contract ABI for the deposit method
const EscrowDepositABI = `[{
	"inputs": [
		{"internalType": "address", "name": "token", "type": "address"},
		{"internalType": "uint256", "name": "amount", "type": "uint256"}
	],
	"name": "deposit",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

// ERC20 ABI for the approve method
const ERC20ApproveABI = `[{
	"inputs": [
		{"internalType": "address", "name": "spender", "type": "address"},
		{"internalType": "uint256", "name": "amount", "type": "uint256"}
	],
	"name": "approve",
	"outputs": [
		{"internalType": "bool", "name": "", "type": "bool"}
	],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

// TxPayload is an unsigned transaction for the caller's wallet to sign.
// The builder performs no state mutation of its own.
type TxPayload struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	GasLimit string `json:"gas_limit"`
	GasPrice string `json:"gas_price"`
	ChainID  string `json:"chain_id"`
	Nonce    string `json:"nonce"`
}

// BuildDeposit creates an unsigned transaction depositing amount of the token
// into the chain's escrow contract. Amount is a human-readable decimal,
// scaled to on-chain units by the token's registered decimals.
func (c *Client) BuildDeposit(ctx context.Context, chainID int64, tokenAddress string, amount decimal.Decimal, walletAddress string) (*TxPayload, error) {
	escrowAddress, exists := c.contracts.Resolve(chainID)
	if !exists {
		return nil, market.ErrEscrowNotFound
	}

	rawAmount, err := c.scaleToTokenUnits(chainID, tokenAddress, amount)
	if err != nil {
		return nil, err
	}

	data, err := c.escrowFnABI.Pack("deposit", common.HexToAddress(tokenAddress), rawAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack deposit method: %w", err)
	}

	return c.buildPayload(ctx, chainID, escrowAddress.Hex(), data, DepositGasLimit, walletAddress)
}

// BuildApprove creates an unsigned ERC20 approve granting the escrow contract
// an allowance of amount on the token.
func (c *Client) BuildApprove(ctx context.Context, chainID int64, tokenAddress string, amount decimal.Decimal, walletAddress string) (*TxPayload, error) {
	escrowAddress, exists := c.contracts.Resolve(chainID)
	if !exists {
		return nil, market.ErrEscrowNotFound
	}

	rawAmount, err := c.scaleToTokenUnits(chainID, tokenAddress, amount)
	if err != nil {
		return nil, err
	}

	data, err := c.erc20ABI.Pack("approve", escrowAddress, rawAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve method: %w", err)
	}

	return c.buildPayload(ctx, chainID, tokenAddress, data, ApproveGasLimit, walletAddress)
}

func (c *Client) buildPayload(ctx context.Context, chainID int64, to string, data []byte, gasLimit, walletAddress string) (*TxPayload, error) {
	network, exists := c.networks.Resolve(chainID)
	if !exists {
		return nil, market.ErrNetworkNotFound
	}

	client, err := c.clientFor(network)
	if err != nil {
		return nil, err
	}

	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(walletAddress))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get nonce: %v", market.ErrRetryable, err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get gas price: %v", market.ErrRetryable, err)
	}

	return &TxPayload{
		To:       to,
		Data:     "0x" + hex.EncodeToString(data),
		Value:    "0x0", // No native value for ERC20 transfers
		GasLimit: gasLimit,
		GasPrice: "0x" + gasPrice.Text(16),
		ChainID:  strconv.FormatInt(chainID, 10),
		Nonce:    "0x" + strconv.FormatUint(nonce, 16),
	}, nil
}

// scaleToTokenUnits converts a decimal amount to the token's on-chain integer
// representation. The token must be registered so its decimals are known.
func (c *Client) scaleToTokenUnits(chainID int64, tokenAddress string, amount decimal.Decimal) (*big.Int, error) {
	token, err := c.tokens.GetTokenByAddress(chainID, tokenAddress)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, market.ErrTokenNotFound
	}

	return amount.Shift(int32(token.Decimals)).BigInt(), nil
}
