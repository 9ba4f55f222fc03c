package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/infra/filesystem/json"
)

const (
	proverAddr = "0x1111111111111111111111111111111111111111"
	onRampAddr = "0x2222222222222222222222222222222222222222"
	bridgeAddr = "0x3333333333333333333333333333333333333333"
)

func writeArtifact(t *testing.T, root, chain, contract, address string) {
	t.Helper()
	require.NoError(t, json.NewWriter().WriteJSON(
		filepath.Join(root, chain, contract+".json"),
		map[string]any{"address": address, "abi": []any{}},
	))
}

func newFilesystemRepository(root string) *FilesystemRepository {
	return NewFilesystemRepository(root, testContracts, json.NewReader(), json.NewWriter())
}

func TestFilesystemRepositoryDiscovery(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "filecoin", "DealClientAxl", proverAddr)
	writeArtifact(t, root, "avalanche", "OnRampContract", onRampAddr)
	writeArtifact(t, root, "avalanche", "AxelarBridge", bridgeAddr)
	writeArtifact(t, root, "flow", "OnRampContract", onRampAddr)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	repo := newFilesystemRepository(root)
	ctx := context.Background()

	chains, err := repo.ListChains(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"avalanche", "filecoin", "flow"}, chains)

	candidates, err := repo.ListCandidateSourceChains(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"avalanche"}, candidates)

	contracts, err := repo.ListContracts(ctx, "avalanche")
	require.NoError(t, err)
	assert.Equal(t, []string{"AxelarBridge", "OnRampContract"}, contracts)

	got, err := repo.Resolve(ctx, "filecoin", "DealClientAxl")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(proverAddr), got.Address)
	assert.Nil(t, got.DeployTxHash)
}

func TestFilesystemRepositoryMissing(t *testing.T) {
	repo := newFilesystemRepository(t.TempDir())

	_, err := repo.Resolve(context.Background(), "filecoin", "DealClientAxl")
	require.ErrorIs(t, err, domain.ErrMissingArtifact)

	chains, err := repo.ListChains(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestFilesystemRepositoryInvalidAddress(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "filecoin", "DealClientAxl", "not-an-address")

	_, err := newFilesystemRepository(root).Resolve(context.Background(), "filecoin", "DealClientAxl")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMissingArtifact)
}

func TestFilesystemRepositoryPut(t *testing.T) {
	root := t.TempDir()
	repo := newFilesystemRepository(root)
	ctx := context.Background()

	hash := common.HexToHash("0xabcdef")
	require.NoError(t, repo.Put(ctx, domain.DeploymentRecord{
		ChainName:    "flow",
		ContractName: "AxelarBridge",
		Address:      common.HexToAddress(bridgeAddr),
		DeployTxHash: &hash,
	}))

	got, err := repo.Resolve(ctx, "flow", "AxelarBridge")
	require.NoError(t, err)
	require.NotNil(t, got.DeployTxHash)
	assert.Equal(t, hash, *got.DeployTxHash)
}
