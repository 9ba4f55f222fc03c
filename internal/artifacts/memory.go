package artifacts

import (
	"context"
	"sort"
	"sync"

	"github.com/fil-builders/onramp-configurator/internal/domain"
)

// MemoryRepository keeps records in memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	contracts SourceContracts
	records   map[string]map[string]domain.DeploymentRecord
}

func NewMemoryRepository(contracts SourceContracts, records ...domain.DeploymentRecord) *MemoryRepository {
	repo := &MemoryRepository{
		contracts: contracts,
		records:   make(map[string]map[string]domain.DeploymentRecord),
	}
	for _, record := range records {
		repo.put(record)
	}
	return repo
}

func (m *MemoryRepository) Resolve(_ context.Context, chainName, contractName string) (domain.DeploymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[chainName][contractName]
	if !ok {
		return domain.DeploymentRecord{}, missing(chainName, contractName)
	}
	return record, nil
}

func (m *MemoryRepository) ListChains(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chains := make([]string, 0, len(m.records))
	for chain, contracts := range m.records {
		if len(contracts) > 0 {
			chains = append(chains, chain)
		}
	}
	sort.Strings(chains)

	return chains, nil
}

func (m *MemoryRepository) ListContracts(_ context.Context, chainName string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contracts := make([]string, 0, len(m.records[chainName]))
	for name := range m.records[chainName] {
		contracts = append(contracts, name)
	}
	sort.Strings(contracts)

	return contracts, nil
}

func (m *MemoryRepository) ListCandidateSourceChains(ctx context.Context) ([]string, error) {
	return candidateSourceChains(ctx, m, m.contracts)
}

func (m *MemoryRepository) Put(_ context.Context, record domain.DeploymentRecord) error {
	m.put(record)
	return nil
}

func (m *MemoryRepository) put(record domain.DeploymentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ChainName]; !ok {
		m.records[record.ChainName] = make(map[string]domain.DeploymentRecord)
	}
	m.records[record.ChainName][record.ContractName] = record
}

func (m *MemoryRepository) has(_ context.Context, chainName, contractName string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[chainName][contractName]
	return ok, nil
}
