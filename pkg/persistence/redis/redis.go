package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixClassification = "signer:account:"
	keyPrefixSessionRecord  = "signer:record:"
	keySchemaVersion        = "signer:metadata:schema_version"
	currentSchemaVersion    = "v1"

	// Redis has no native prefix iteration; records are indexed in a set
	keySetSessionRecords = "signer:records:index"

	connectTimeout   = 5 * time.Second
	operationTimeout = 5 * time.Second
)

// RedisPersistence is an ISignerPersistence backed by Redis, letting several
// signer processes share one classification cache.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "tenant-a:" gives
	// "tenant-a:signer:record:<id>".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the schema version.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if errors.Is(err, redis.Nil) {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisPersistence) checkOpen() error {
	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}

// SaveAccountClassification caches an account classification
func (r *RedisPersistence) SaveAccountClassification(classification *persistence.AccountClassification) error {
	if classification == nil {
		return fmt.Errorf("cannot save nil AccountClassification")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	c := *classification
	c.Address = persistence.AddressKey(common.HexToAddress(classification.Address))
	data, err := persistence.MarshalAccountClassification(&c)
	if err != nil {
		return fmt.Errorf("failed to marshal AccountClassification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefixKey(keyPrefixClassification+c.Address), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save AccountClassification: %w", err)
	}
	return nil
}

// LoadAccountClassification retrieves a cached classification
func (r *RedisPersistence) LoadAccountClassification(address common.Address) (*persistence.AccountClassification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefixKey(keyPrefixClassification+persistence.AddressKey(address))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AccountClassification: %w", err)
	}
	return persistence.UnmarshalAccountClassification(data)
}

// SaveSessionRecord persists a session record and indexes its id
func (r *RedisPersistence) SaveSessionRecord(record *persistence.SessionRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SessionRecord")
	}
	if record.SessionId == "" {
		return fmt.Errorf("cannot save SessionRecord without a session id")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	data, err := persistence.MarshalSessionRecord(record)
	if err != nil {
		return fmt.Errorf("failed to marshal SessionRecord: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.prefixKey(keyPrefixSessionRecord+record.SessionId), data, 0)
	pipe.SAdd(ctx, r.prefixKey(keySetSessionRecords), record.SessionId)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save SessionRecord: %w", err)
	}
	return nil
}

// LoadSessionRecord retrieves a session record by id
func (r *RedisPersistence) LoadSessionRecord(sessionId string) (*persistence.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefixKey(keyPrefixSessionRecord+sessionId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load SessionRecord: %w", err)
	}
	return persistence.UnmarshalSessionRecord(data)
}

// ListSessionRecords returns all session records sorted by finish time
func (r *RedisPersistence) ListSessionRecords() ([]*persistence.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	indexKey := r.prefixKey(keySetSessionRecords)
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list SessionRecord ids: %w", err)
	}
	records := make([]*persistence.SessionRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefixKey(keyPrefixSessionRecord + id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch SessionRecords: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// Indexed but missing; drop the stale index entry
			r.client.SRem(ctx, indexKey, ids[i])
			continue
		}
		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for SessionRecord", "key", keys[i])
			continue
		}
		record, err := persistence.UnmarshalSessionRecord([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal SessionRecord, skipping", "key", keys[i], "error", err)
			continue
		}
		records = append(records, record)
	}

	persistence.SortSessionRecords(records)
	return records, nil
}

// DeleteSessionRecord removes a session record and its index entry
func (r *RedisPersistence) DeleteSessionRecord(sessionId string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.prefixKey(keyPrefixSessionRecord+sessionId))
	pipe.SRem(ctx, r.prefixKey(keySetSessionRecords), sessionId)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete SessionRecord: %w", err)
	}
	return nil
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
