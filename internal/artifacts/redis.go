package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/fil-builders/onramp-configurator/internal/domain"
	"github.com/fil-builders/onramp-configurator/internal/logger"
)

type (
	// ConnPool hands out redis connections; *redis.Pool satisfies it.
	ConnPool interface {
		Get() redis.Conn
	}

	// RedisRepository persists records as JSON values:
	//   <prefix>:chains                    set of chain names
	//   <prefix>:<chain>:contracts         set of contract names
	//   <prefix>:<chain>:<contract>        artifact JSON
	RedisRepository struct {
		pool      ConnPool
		prefix    string
		contracts SourceContracts
		logger    *slog.Logger
	}
)

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

// NewPool creates a small connection pool to host:port
func NewPool(host string, port int) *redis.Pool {
	addr := fmt.Sprintf("%s:%d", host, port)
	return &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: time.Minute,
		Dial:        func() (redis.Conn, error) { return redis.Dial("tcp", addr, timeoutDialOptions()...) },
	}
}

func NewRedisRepository(pool ConnPool, prefix string, contracts SourceContracts) *RedisRepository {
	return &RedisRepository{
		pool:      pool,
		prefix:    prefix,
		contracts: contracts,
		logger:    logger.Named("redis_artifacts").With("prefix", prefix),
	}
}

func (r *RedisRepository) Resolve(ctx context.Context, chainName, contractName string) (domain.DeploymentRecord, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return domain.DeploymentRecord{}, err
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", r.recordKey(chainName, contractName)))
	if errors.Is(err, redis.ErrNil) {
		return domain.DeploymentRecord{}, missing(chainName, contractName)
	}
	if err != nil {
		return domain.DeploymentRecord{}, fmt.Errorf("redis get %s/%s: %w", chainName, contractName, err)
	}

	var file domain.ArtifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.DeploymentRecord{}, fmt.Errorf("failed to decode artifact %s/%s: %w", chainName, contractName, err)
	}

	return file.ToRecord(chainName, contractName)
}

func (r *RedisRepository) ListChains(ctx context.Context) ([]string, error) {
	return r.members(ctx, r.chainsKey())
}

func (r *RedisRepository) ListContracts(ctx context.Context, chainName string) ([]string, error) {
	return r.members(ctx, r.contractsKey(chainName))
}

func (r *RedisRepository) ListCandidateSourceChains(ctx context.Context) ([]string, error) {
	return candidateSourceChains(ctx, r, r.contracts)
}

func (r *RedisRepository) Put(ctx context.Context, record domain.DeploymentRecord) error {
	data, err := json.Marshal(domain.ArtifactFileFromRecord(record))
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// record and both index sets land together or not at all
	key := r.recordKey(record.ChainName, record.ContractName)
	if err := conn.Send("MULTI"); err != nil {
		return fmt.Errorf("redis multi: %w", err)
	}
	if err := conn.Send("SET", key, data); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", record.ChainName, record.ContractName, err)
	}
	if err := conn.Send("SADD", r.contractsKey(record.ChainName), record.ContractName); err != nil {
		return fmt.Errorf("redis sadd contracts of %s: %w", record.ChainName, err)
	}
	if err := conn.Send("SADD", r.chainsKey(), record.ChainName); err != nil {
		return fmt.Errorf("redis sadd chains: %w", err)
	}
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("redis exec for %s/%s: %w", record.ChainName, record.ContractName, err)
	}

	r.logger.With("chain", record.ChainName).With("contract", record.ContractName).Debug("artifact stored")

	return nil
}

func (r *RedisRepository) has(ctx context.Context, chainName, contractName string) (bool, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	ok, err := redis.Bool(conn.Do("EXISTS", r.recordKey(chainName, contractName)))
	if err != nil {
		return false, fmt.Errorf("redis exists %s/%s: %w", chainName, contractName, err)
	}
	return ok, nil
}

func (r *RedisRepository) members(ctx context.Context, key string) ([]string, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	values, err := redis.Strings(conn.Do("SMEMBERS", key))
	if err != nil && !errors.Is(err, redis.ErrNil) {
		return nil, fmt.Errorf("redis smembers %s: %w", key, err)
	}
	sort.Strings(values)

	return values, nil
}

func (r *RedisRepository) conn(ctx context.Context) (redis.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn := r.pool.Get()
	if err := conn.Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	return conn, nil
}

func (r *RedisRepository) chainsKey() string {
	return r.prefix + ":chains"
}

func (r *RedisRepository) contractsKey(chainName string) string {
	return fmt.Sprintf("%s:%s:contracts", r.prefix, chainName)
}

func (r *RedisRepository) recordKey(chainName, contractName string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, chainName, contractName)
}
