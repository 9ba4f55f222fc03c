package artifacts

import (
	"fmt"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/infra/filesystem/json"
)

// ContractsFromConfig returns the on-ramp and bridge names used for discovery.
func ContractsFromConfig(cfg configs.Config) SourceContracts {
	return SourceContracts{OnRamp: cfg.Contracts.OnRamp, Bridge: cfg.Contracts.Bridge}
}

// OpenFilesystem opens the hardhat-deploy directory at root.
func OpenFilesystem(root string, cfg configs.Config) *FilesystemRepository {
	return NewFilesystemRepository(root, ContractsFromConfig(cfg), json.NewReader(), json.NewWriter())
}

// Open builds the store selected by artifact-store.kind. The returned
// close function releases the redis pool and is never nil.
func Open(cfg configs.Config) (Store, func(), error) {
	switch cfg.ArtifactStore.Kind {
	case configs.StoreKindFilesystem:
		return OpenFilesystem(cfg.DeploymentsDir, cfg), func() {}, nil
	case configs.StoreKindRedis:
		redisCfg := cfg.ArtifactStore.Redis
		pool := NewPool(redisCfg.Host, redisCfg.Port)
		return NewRedisRepository(pool, redisCfg.KeyPrefix, ContractsFromConfig(cfg)), func() { _ = pool.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported artifact store kind '%s'", cfg.ArtifactStore.Kind)
	}
}
