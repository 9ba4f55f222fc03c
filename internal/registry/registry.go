// Package registry holds the chain descriptors of the selected network.
// The table is validated once when the registry is built.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/logger"
)

// TargetDestination selects the destination chain without naming it.
const TargetDestination = "destination"

type Registry struct {
	network     configs.NetworkName
	destination domain.ChainDescriptor
	chains      map[string]domain.ChainDescriptor
	logger      *slog.Logger
}

// New builds the registry from cfg.Networks[cfg.Network]. When
// cfg.AxelarChainsConfig is set, gateway and gas service addresses are
// taken from that file for every chain it lists.
func New(cfg configs.Config) (*Registry, error) {
	var overlay AxelarChains
	if cfg.AxelarChainsConfig != "" {
		var err error
		overlay, err = LoadAxelarChains(cfg.AxelarChainsConfig)
		if err != nil {
			return nil, &domain.ConfigurationError{Reason: "failed to load axelar chains config", Err: err}
		}
	}

	return NewWithOverlay(cfg, overlay)
}

func NewWithOverlay(cfg configs.Config, overlay AxelarChains) (*Registry, error) {
	if cfg.Network != configs.NetworkTestnet && cfg.Network != configs.NetworkMainnet {
		return nil, domain.NewConfigurationError("unknown network '%s', expected '%s' or '%s'",
			cfg.Network, configs.NetworkTestnet, configs.NetworkMainnet)
	}

	table, ok := cfg.Networks[cfg.Network]
	if !ok || len(table) == 0 {
		return nil, domain.NewConfigurationError("no chains declared for network '%s'", cfg.Network)
	}

	r := &Registry{
		network: cfg.Network,
		chains:  make(map[string]domain.ChainDescriptor, len(table)),
		logger:  logger.Named("registry").With("network", cfg.Network),
	}

	var errs []error
	seenIDs := make(map[uint64]string, len(table))
	for name, entry := range table {
		descriptor, err := toDescriptor(name, entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if other, dup := seenIDs[descriptor.ChainID]; dup {
			errs = append(errs, fmt.Errorf("chains '%s' and '%s' share chain id %d", other, name, descriptor.ChainID))
		}
		seenIDs[descriptor.ChainID] = name

		if contracts, ok := overlay.Lookup(name); ok {
			descriptor.GatewayAddress = contracts.Gateway
			descriptor.GasServiceAddress = contracts.GasService
		}

		r.chains[name] = descriptor
	}

	destination, ok := r.chains[cfg.Destination.Chain]
	switch {
	case !ok:
		errs = append(errs, fmt.Errorf("destination chain '%s' is not declared for network '%s'", cfg.Destination.Chain, cfg.Network))
	case destination.IsSourceChain:
		errs = append(errs, fmt.Errorf("destination chain '%s' must not be marked as a source chain", cfg.Destination.Chain))
	}
	for name, descriptor := range r.chains {
		if name != cfg.Destination.Chain && !descriptor.IsSourceChain {
			errs = append(errs, fmt.Errorf("chain '%s' is neither the destination nor a source chain", name))
		}
	}

	if len(errs) > 0 {
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("invalid chain table for network '%s'", cfg.Network),
			Err:    errors.Join(errs...),
		}
	}

	r.destination = destination
	r.logger.With("chains", len(r.chains)).With("destination", destination.Name).Debug("chain registry loaded")

	return r, nil
}

func (r *Registry) Network() configs.NetworkName {
	return r.network
}

// Describe returns the descriptor of a declared chain.
func (r *Registry) Describe(name string) (domain.ChainDescriptor, error) {
	descriptor, ok := r.chains[name]
	if !ok {
		return domain.ChainDescriptor{}, domain.NewConfigurationError("chain '%s' is not declared for network '%s'", name, r.network)
	}
	return descriptor, nil
}

func (r *Registry) Destination() domain.ChainDescriptor {
	return r.destination
}

// SourceChains returns the declared source chains sorted by name.
func (r *Registry) SourceChains() []domain.ChainDescriptor {
	sources := make([]domain.ChainDescriptor, 0, len(r.chains))
	for _, descriptor := range r.chains {
		if descriptor.IsSourceChain {
			sources = append(sources, descriptor)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	return sources
}

// Chains returns every declared chain, destination first.
func (r *Registry) Chains() []domain.ChainDescriptor {
	return append([]domain.ChainDescriptor{r.destination}, r.SourceChains()...)
}

// ResolveTarget maps a run target onto a descriptor. Accepted values are
// "destination", the destination chain name, or a declared source chain.
func (r *Registry) ResolveTarget(target string) (domain.ChainDescriptor, error) {
	if target == "" {
		return domain.ChainDescriptor{}, domain.NewConfigurationError("run target is empty")
	}
	if target == TargetDestination {
		return r.destination, nil
	}
	return r.Describe(target)
}

func toDescriptor(name string, entry configs.ChainDescriptor) (domain.ChainDescriptor, error) {
	var errs []error

	if entry.ChainID == 0 {
		errs = append(errs, fmt.Errorf("chain '%s': chain-id is required", name))
	}
	if entry.RPCURL == "" {
		errs = append(errs, fmt.Errorf("chain '%s': rpc-url is required", name))
	} else if u, err := url.Parse(entry.RPCURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("chain '%s': rpc-url '%s' is not an absolute URL", name, entry.RPCURL))
	}
	if !configs.IsValidAddress(entry.GatewayAddress) {
		errs = append(errs, fmt.Errorf("chain '%s': gateway-address '%s' is not a hex address", name, entry.GatewayAddress))
	}
	if !configs.IsValidAddress(entry.GasServiceAddress) {
		errs = append(errs, fmt.Errorf("chain '%s': gas-service-address '%s' is not a hex address", name, entry.GasServiceAddress))
	}

	if len(errs) > 0 {
		return domain.ChainDescriptor{}, errors.Join(errs...)
	}

	return domain.ChainDescriptor{
		Name:              name,
		ChainID:           entry.ChainID,
		RPCEndpoint:       entry.RPCURL,
		IsSourceChain:     entry.SourceChain,
		GatewayAddress:    common.HexToAddress(entry.GatewayAddress),
		GasServiceAddress: common.HexToAddress(entry.GasServiceAddress),
	}, nil
}
