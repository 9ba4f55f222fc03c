package artifacts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/infra/filesystem"
	"github.com/fil-builders/onramp-configurator/internal/logger"
)

const artifactExt = ".json"

// FilesystemRepository reads the hardhat-deploy layout: <root>/<chain>/<Contract>.json
type FilesystemRepository struct {
	root      string
	contracts SourceContracts
	reader    filesystem.Reader
	writer    filesystem.Writer
	logger    *slog.Logger
}

func NewFilesystemRepository(root string, contracts SourceContracts, reader filesystem.Reader, writer filesystem.Writer) *FilesystemRepository {
	return &FilesystemRepository{
		root:      root,
		contracts: contracts,
		reader:    reader,
		writer:    writer,
		logger:    logger.Named("filesystem_artifacts").With("root", root),
	}
}

func (f *FilesystemRepository) Resolve(ctx context.Context, chainName, contractName string) (domain.DeploymentRecord, error) {
	ok, err := f.has(ctx, chainName, contractName)
	if err != nil {
		return domain.DeploymentRecord{}, err
	}
	if !ok {
		return domain.DeploymentRecord{}, missing(chainName, contractName)
	}

	path := f.path(chainName, contractName)

	var file domain.ArtifactFile
	if err := f.reader.ReadJSON(path, &file); err != nil {
		return domain.DeploymentRecord{}, fmt.Errorf("failed to read artifact '%s': %w", path, err)
	}

	return file.ToRecord(chainName, contractName)
}

func (f *FilesystemRepository) ListChains(ctx context.Context) ([]string, error) {
	dirs, err := f.reader.ListDirs(f.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments directory '%s': %w", f.root, err)
	}

	chains := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		contracts, err := f.ListContracts(ctx, dir)
		if err != nil {
			return nil, err
		}
		if len(contracts) == 0 {
			f.logger.With("chain", dir).Debug("skipping deployment directory without artifacts")
			continue
		}
		chains = append(chains, dir)
	}

	return chains, nil
}

func (f *FilesystemRepository) ListContracts(_ context.Context, chainName string) ([]string, error) {
	files, err := f.reader.ListFiles(filepath.Join(f.root, chainName), artifactExt)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts of '%s': %w", chainName, err)
	}

	contracts := make([]string, 0, len(files))
	for _, file := range files {
		contracts = append(contracts, strings.TrimSuffix(file, artifactExt))
	}

	return contracts, nil
}

func (f *FilesystemRepository) ListCandidateSourceChains(ctx context.Context) ([]string, error) {
	return candidateSourceChains(ctx, f, f.contracts)
}

// Put writes the record in the hardhat-deploy layout.
func (f *FilesystemRepository) Put(_ context.Context, record domain.DeploymentRecord) error {
	path := f.path(record.ChainName, record.ContractName)
	if err := f.writer.WriteJSON(path, domain.ArtifactFileFromRecord(record)); err != nil {
		return fmt.Errorf("failed to write artifact '%s': %w", path, err)
	}

	f.logger.With("chain", record.ChainName).With("contract", record.ContractName).Debug("artifact written")

	return nil
}

func (f *FilesystemRepository) has(_ context.Context, chainName, contractName string) (bool, error) {
	ok, err := f.reader.Exists(f.path(chainName, contractName))
	if err != nil {
		return false, fmt.Errorf("failed to check artifact %s/%s: %w", chainName, contractName, err)
	}
	return ok, nil
}

func (f *FilesystemRepository) path(chainName, contractName string) string {
	return filepath.Join(f.root, chainName, contractName+artifactExt)
}
