package artifacts

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fil-builders/onramp-configurator/internal/domain"
)

var testContracts = SourceContracts{OnRamp: "OnRampContract", Bridge: "AxelarBridge"}

func record(chain, contract string, addr byte) domain.DeploymentRecord {
	return domain.DeploymentRecord{
		ChainName:    chain,
		ContractName: contract,
		Address:      common.BytesToAddress([]byte{addr}),
	}
}

func TestMemoryRepositoryResolve(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(testContracts, record("filecoin", "DealClientAxl", 0x01))

	got, err := repo.Resolve(ctx, "filecoin", "DealClientAxl")
	require.NoError(t, err)
	assert.Equal(t, common.BytesToAddress([]byte{0x01}), got.Address)

	_, err = repo.Resolve(ctx, "filecoin", "OnRampContract")
	require.ErrorIs(t, err, domain.ErrMissingArtifact)

	var missingErr *domain.MissingArtifactError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "filecoin", missingErr.ChainName)
	assert.Equal(t, "OnRampContract", missingErr.ContractName)
}

func TestCandidateSourceChainsExcludesPartialDeployments(t *testing.T) {
	repo := NewMemoryRepository(testContracts,
		record("filecoin", "DealClientAxl", 0x01),
		record("alpha", "OnRampContract", 0x02),
		record("alpha", "AxelarBridge", 0x03),
		record("beta", "OnRampContract", 0x04),
		record("beta", "AxelarBridge", 0x05),
		record("gamma", "OnRampContract", 0x06),
		record("delta", "AxelarBridge", 0x07),
	)

	candidates, err := repo.ListCandidateSourceChains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, candidates)
}

func TestCandidateSourceChainsEmpty(t *testing.T) {
	repo := NewMemoryRepository(testContracts, record("filecoin", "DealClientAxl", 0x01))

	candidates, err := repo.ListCandidateSourceChains(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	from := NewMemoryRepository(testContracts,
		record("filecoin", "DealClientAxl", 0x01),
		record("alpha", "OnRampContract", 0x02),
		record("alpha", "AxelarBridge", 0x03),
	)
	to := NewMemoryRepository(testContracts)

	n, err := Import(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	chains, err := to.ListChains(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "filecoin"}, chains)

	got, err := to.Resolve(ctx, "alpha", "AxelarBridge")
	require.NoError(t, err)
	assert.Equal(t, common.BytesToAddress([]byte{0x03}), got.Address)
}
