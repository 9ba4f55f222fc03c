// Package artifacts resolves the deployment records produced by the deploy phase.
// Lookups never touch a chain node.
package artifacts

import (
	"context"
	"fmt"

	"github.com/fil-builders/onramp-configurator/internal/domain"
)

type (
	// Repository is a read-only view over deployment records.
	Repository interface {
		// Resolve returns the record of contractName on chainName, or an error
		// matching domain.ErrMissingArtifact.
		Resolve(ctx context.Context, chainName, contractName string) (domain.DeploymentRecord, error)
		// ListChains returns every chain that has at least one record, sorted.
		ListChains(ctx context.Context) ([]string, error)
		// ListContracts returns the contract names recorded for a chain, sorted.
		ListContracts(ctx context.Context, chainName string) ([]string, error)
		// ListCandidateSourceChains returns the chains holding both an on-ramp
		// and a bridge record. Partially deployed chains are left out.
		ListCandidateSourceChains(ctx context.Context) ([]string, error)
	}

	// Store is a Repository that accepts new records.
	Store interface {
		Repository
		Put(ctx context.Context, record domain.DeploymentRecord) error
	}

	// SourceContracts names the two contracts a source chain needs to qualify as a candidate.
	SourceContracts struct {
		OnRamp string
		Bridge string
	}

	lister interface {
		ListChains(ctx context.Context) ([]string, error)
		has(ctx context.Context, chainName, contractName string) (bool, error)
	}
)

func candidateSourceChains(ctx context.Context, repo lister, contracts SourceContracts) ([]string, error) {
	chains, err := repo.ListChains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chains: %w", err)
	}

	candidates := make([]string, 0, len(chains))
	for _, chain := range chains {
		hasOnRamp, err := repo.has(ctx, chain, contracts.OnRamp)
		if err != nil {
			return nil, err
		}
		if !hasOnRamp {
			continue
		}

		hasBridge, err := repo.has(ctx, chain, contracts.Bridge)
		if err != nil {
			return nil, err
		}
		if !hasBridge {
			continue
		}

		candidates = append(candidates, chain)
	}

	return candidates, nil
}

// Import copies every record of from into to and returns how many were written.
func Import(ctx context.Context, from Repository, to Store) (int, error) {
	chains, err := from.ListChains(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list source chains: %w", err)
	}

	imported := 0
	for _, chain := range chains {
		contracts, err := from.ListContracts(ctx, chain)
		if err != nil {
			return imported, fmt.Errorf("failed to list contracts of %s: %w", chain, err)
		}

		for _, contract := range contracts {
			record, err := from.Resolve(ctx, chain, contract)
			if err != nil {
				return imported, fmt.Errorf("failed to resolve %s/%s: %w", chain, contract, err)
			}

			if err := to.Put(ctx, record); err != nil {
				return imported, fmt.Errorf("failed to store %s/%s: %w", chain, contract, err)
			}
			imported++
		}
	}

	return imported, nil
}

func missing(chainName, contractName string) error {
	return &domain.MissingArtifactError{ChainName: chainName, ContractName: contractName}
}
