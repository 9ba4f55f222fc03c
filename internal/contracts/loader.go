// Package contracts wraps the prover, bridge and on-ramp functions the
// configurator reads and writes.
package contracts

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

type ContractName string

const (
	ContractNameProver ContractName = "DealClientAxl"
	ContractNameBridge ContractName = "AxelarBridge"
	ContractNameOnRamp ContractName = "OnRampContract"
)

//go:embed abi/*.json
var abiFS embed.FS

var (
	loadOnce sync.Once
	loaded   map[ContractName]*abi.ABI
	loadErr  error
)

// LoadABIs parses the embedded ABIs once.
func LoadABIs() (map[ContractName]*abi.ABI, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parseABIs()
	})
	return loaded, loadErr
}

// MustABI returns the parsed ABI of name or panics; the embedded files are fixed at build time.
func MustABI(name ContractName) *abi.ABI {
	abis, err := LoadABIs()
	if err != nil {
		panic(err)
	}
	parsed, ok := abis[name]
	if !ok {
		panic(fmt.Sprintf("no embedded ABI for %s", name))
	}
	return parsed
}

func parseABIs() (map[ContractName]*abi.ABI, error) {
	entries, err := abiFS.ReadDir("abi")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded ABIs: %w", err)
	}

	abis := make(map[ContractName]*abi.ABI, len(entries))
	for _, entry := range entries {
		data, err := abiFS.ReadFile(path.Join("abi", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		parsed, err := abi.JSON(strings.NewReader(string(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI for %s: %w", entry.Name(), err)
		}

		abis[ContractName(strings.TrimSuffix(entry.Name(), ".json"))] = &parsed
	}

	return abis, nil
}
