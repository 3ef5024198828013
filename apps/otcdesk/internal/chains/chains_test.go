package chains

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNetworkRegistryResolve(t *testing.T) {
	registry := NewNetworkRegistry()

	network, exists := registry.Resolve(1)
	if !exists {
		t.Fatal("expected Ethereum mainnet to be configured")
	}
	if network.Name != "Ethereum" || network.ChainType != ChainTypeEVM {
		t.Errorf("unexpected network: %+v", network)
	}

	if _, exists := registry.Resolve(999); exists {
		t.Error("unknown chain id resolved")
	}

	if got := len(registry.All()); got != 3 {
		t.Errorf("expected 3 configured networks, got %d", got)
	}
}

func TestNetworkRegistryRPCOverride(t *testing.T) {
	t.Setenv("RPC_URL_8453", "http://localhost:8545")

	registry := NewNetworkRegistry()
	network, exists := registry.Resolve(8453)
	if !exists {
		t.Fatal("expected Base to be configured")
	}
	if network.RpcURL != "http://localhost:8545" {
		t.Errorf("RPC override not applied: %s", network.RpcURL)
	}
}

func TestContractRegistryResolve(t *testing.T) {
	registry := NewContractRegistry()

	for _, chainID := range []int64{1, 8453, 42161} {
		if _, exists := registry.Resolve(chainID); !exists {
			t.Errorf("no escrow deployment for chain %d", chainID)
		}
	}

	if _, exists := registry.Resolve(999); exists {
		t.Error("unknown chain id resolved to an escrow")
	}
}

func TestContractRegistryOverride(t *testing.T) {
	t.Setenv("ESCROW_ADDRESS_1", "0x00000000000000000000000000000000000000aa")

	registry := NewContractRegistry()
	address, exists := registry.Resolve(1)
	if !exists {
		t.Fatal("expected Ethereum escrow to be configured")
	}
	if address != common.HexToAddress("0x00000000000000000000000000000000000000aa") {
		t.Errorf("escrow override not applied: %s", address.Hex())
	}
}
