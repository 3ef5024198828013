package chains

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ChainTypeEVM = "evm"
)

// Network describes one chain the marketplace settles on.
type Network struct {
	ChainID   int64  `json:"chain_id"`
	Name      string `json:"name"`
	RpcURL    string `json:"rpc_url"`
	ChainType string `json:"chain_type"`
}

// NetworkRegistry resolves a chain id to its network configuration.
type NetworkRegistry struct {
	networks map[int64]*Network
}

// NewNetworkRegistry creates a registry with the supported networks.
// An RPC_URL_<chainID> environment variable overrides the default RPC URL.
func NewNetworkRegistry() *NetworkRegistry {
	registry := &NetworkRegistry{networks: make(map[int64]*Network)}

	supportedNetworks := []*Network{
		{
			ChainID:   1,
			Name:      "Ethereum",
			RpcURL:    "https://eth.llamarpc.com",
			ChainType: ChainTypeEVM,
		},
		{
			ChainID:   8453,
			Name:      "Base",
			RpcURL:    "https://mainnet.base.org",
			ChainType: ChainTypeEVM,
		},
		{
			ChainID:   42161,
			Name:      "Arbitrum One",
			RpcURL:    "https://arb1.arbitrum.io/rpc",
			ChainType: ChainTypeEVM,
		},
	}

	for _, network := range supportedNetworks {
		if override := os.Getenv(fmt.Sprintf("RPC_URL_%d", network.ChainID)); override != "" {
			network.RpcURL = override
		}
		registry.networks[network.ChainID] = network
	}

	return registry
}

// Resolve returns the network configuration for the given chain id.
func (r *NetworkRegistry) Resolve(chainID int64) (*Network, bool) {
	network, exists := r.networks[chainID]
	return network, exists
}

// All returns every configured network.
func (r *NetworkRegistry) All() []*Network {
	networks := make([]*Network, 0, len(r.networks))
	for _, network := range r.networks {
		networks = append(networks, network)
	}
	return networks
}

// ContractRegistry resolves a chain id to the escrow contract deployed there.
type ContractRegistry struct {
	escrows map[int64]common.Address
}

// NewContractRegistry creates a registry with the deployed escrow addresses.
// An ESCROW_ADDRESS_<chainID> environment variable overrides the default.
func NewContractRegistry() *ContractRegistry {
	registry := &ContractRegistry{escrows: make(map[int64]common.Address)}

	deployments := map[int64]string{
		1:     "0x91cf0f92a9e2164cbb20337c1dd7b4b3b9e1f52d",
		8453:  "0x5d178d0a7ee77ccebbbbbc37d5a5b1b591a1ca5e",
		42161: "0xa6b71e26c5e0845f74c812102ca7114b6a896ab2",
	}

	for chainID, address := range deployments {
		if override := os.Getenv(fmt.Sprintf("ESCROW_ADDRESS_%d", chainID)); override != "" {
			address = override
		}
		registry.escrows[chainID] = common.HexToAddress(address)
	}

	return registry
}

// Resolve returns the escrow contract address for the given chain id.
func (r *ContractRegistry) Resolve(chainID int64) (common.Address, bool) {
	address, exists := r.escrows[chainID]
	return address, exists
}
