package escrow

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/chains"
	"otcdesk/apps/otcdesk/internal/market"
	"otcdesk/apps/otcdesk/internal/model"
)

// Escrow contract ABI for the Deposit event
const EscrowEventABI = `[
	{
		"type": "event",
		"name": "Deposit",
		"inputs": [
			{"internalType": "address", "name": "user", "type": "address", "indexed": true},
			{"internalType": "address", "name": "token", "type": "address", "indexed": true},
			{"internalType": "uint256", "name": "amount", "type": "uint256", "indexed": false}
		]
	}
]`

// Event signatures
var DepositEventSig = crypto.Keccak256Hash([]byte("Deposit(address,address,uint256)"))

// DepositEvent is one recognized escrow deposit extracted from a confirmed
// transaction.
type DepositEvent struct {
	Found           bool
	UserAddress     string
	TokenAddress    string
	RawAmount       decimal.Decimal
	FormattedAmount decimal.Decimal
	LogIndex        uint64
}

// TokenSource resolves a token contract address to its registered settlement
// token, used for decimal formatting of raw amounts.
type TokenSource interface {
	GetTokenByAddress(chainID int64, address string) (*model.ExToken, error)
}

// Client reads confirmed transactions off-chain state through per-chain RPC
// connections and extracts escrow deposit events.
type Client struct {
	networks    *chains.NetworkRegistry
	contracts   *chains.ContractRegistry
	tokens      TokenSource
	escrowABI   abi.ABI
	escrowFnABI abi.ABI
	erc20ABI    abi.ABI
	logger      *zap.Logger

	mu      sync.Mutex
	clients map[int64]*ethclient.Client
}

func NewClient(networks *chains.NetworkRegistry, contracts *chains.ContractRegistry, tokens TokenSource, logger *zap.Logger) (*Client, error) {
	parsedABI, err := abi.JSON(strings.NewReader(EscrowEventABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}

	parsedFnABI, err := abi.JSON(strings.NewReader(EscrowDepositABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow deposit ABI: %w", err)
	}

	parsedERC20ABI, err := abi.JSON(strings.NewReader(ERC20ApproveABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 approve ABI: %w", err)
	}

	return &Client{
		networks:    networks,
		contracts:   contracts,
		tokens:      tokens,
		escrowABI:   parsedABI,
		escrowFnABI: parsedFnABI,
		erc20ABI:    parsedERC20ABI,
		logger:      logger,
		clients:     make(map[int64]*ethclient.Client),
	}, nil
}

// clientFor dials the chain's RPC endpoint once and reuses the connection.
func (c *Client) clientFor(network *chains.Network) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[network.ChainID]; ok {
		return client, nil
	}

	client, err := ethclient.Dial(network.RpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s RPC: %v", market.ErrRetryable, network.Name, err)
	}
	c.clients[network.ChainID] = client
	return client, nil
}

// ParseDeposit fetches the receipt for txHash on chainID and extracts the
// escrow Deposit event, if the transaction carries one. RPC failures are
// retryable; a confirmed transaction without a recognized deposit event is
// not.
func (c *Client) ParseDeposit(ctx context.Context, chainID int64, txHash string) (DepositEvent, error) {
	network, exists := c.networks.Resolve(chainID)
	if !exists {
		return DepositEvent{}, market.ErrNetworkNotFound
	}

	escrowAddress, exists := c.contracts.Resolve(chainID)
	if !exists {
		return DepositEvent{}, market.ErrEscrowNotFound
	}

	client, err := c.clientFor(network)
	if err != nil {
		return DepositEvent{}, err
	}

	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if err == ethereum.NotFound {
			return DepositEvent{}, fmt.Errorf("%w: transaction %s not found on %s", market.ErrRetryable, txHash, network.Name)
		}
		return DepositEvent{}, fmt.Errorf("%w: failed to fetch receipt for %s: %v", market.ErrRetryable, txHash, err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return DepositEvent{}, market.ErrDepositEventNotFound
	}

	for _, log := range receipt.Logs {
		if log.Address != escrowAddress || len(log.Topics) != 3 || log.Topics[0] != DepositEventSig {
			continue
		}

		unpacked, err := c.escrowABI.Unpack("Deposit", log.Data)
		if err != nil || len(unpacked) != 1 {
			c.logger.Warn("Failed to unpack deposit event",
				zap.String("tx_hash", txHash),
				zap.Uint64("log_index", uint64(log.Index)),
				zap.Error(err))
			continue
		}

		amount, ok := unpacked[0].(*big.Int)
		if !ok {
			continue
		}

		userAddress := common.BytesToAddress(log.Topics[1].Bytes())
		tokenAddress := common.BytesToAddress(log.Topics[2].Bytes())

		rawAmount := decimal.NewFromBigInt(amount, 0)
		formattedAmount := rawAmount
		token, err := c.tokens.GetTokenByAddress(chainID, tokenAddress.Hex())
		if err != nil {
			return DepositEvent{}, err
		}
		if token != nil {
			formattedAmount = decimal.NewFromBigInt(amount, -int32(token.Decimals))
		}

		return DepositEvent{
			Found:           true,
			UserAddress:     userAddress.Hex(),
			TokenAddress:    tokenAddress.Hex(),
			RawAmount:       rawAmount,
			FormattedAmount: formattedAmount,
			LogIndex:        uint64(log.Index),
		}, nil
	}

	return DepositEvent{}, market.ErrDepositEventNotFound
}
