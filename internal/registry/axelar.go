package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

type (
	// AxelarChains is the subset of @axelar-network/axelar-chains-config
	// info/<network>.json that carries contract addresses.
	AxelarChains struct {
		Chains map[string]axelarChain `json:"chains"`
	}

	axelarChain struct {
		Contracts struct {
			AxelarGateway    axelarContract `json:"AxelarGateway"`
			AxelarGasService axelarContract `json:"AxelarGasService"`
		} `json:"contracts"`
	}

	axelarContract struct {
		Address string `json:"address"`
	}

	AxelarContracts struct {
		Gateway    common.Address
		GasService common.Address
	}
)

func LoadAxelarChains(path string) (AxelarChains, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AxelarChains{}, fmt.Errorf("failed to read '%s': %w", path, err)
	}

	var chains AxelarChains
	if err := json.Unmarshal(data, &chains); err != nil {
		return AxelarChains{}, fmt.Errorf("failed to decode '%s': %w", path, err)
	}

	for name, chain := range chains.Chains {
		for _, addr := range []string{chain.Contracts.AxelarGateway.Address, chain.Contracts.AxelarGasService.Address} {
			if addr != "" && !common.IsHexAddress(addr) {
				return AxelarChains{}, fmt.Errorf("chain '%s' has invalid contract address '%s'", name, addr)
			}
		}
	}

	return chains, nil
}

// Lookup returns the addresses for a chain when both are present.
func (a AxelarChains) Lookup(name string) (AxelarContracts, bool) {
	chain, ok := a.Chains[name]
	if !ok {
		return AxelarContracts{}, false
	}

	gateway, gasService := chain.Contracts.AxelarGateway.Address, chain.Contracts.AxelarGasService.Address
	if gateway == "" || gasService == "" {
		return AxelarContracts{}, false
	}

	return AxelarContracts{
		Gateway:    common.HexToAddress(gateway),
		GasService: common.HexToAddress(gasService),
	}, true
}
