package redis

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/logger"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ persistence.ISignerPersistence = (*RedisPersistence)(nil)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test if Redis is not available. Every test gets a
// unique key prefix so runs never see each other's data.
func requireRedis(t *testing.T) *RedisPersistence {
	t.Helper()

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15,
		KeyPrefix: fmt.Sprintf("test-%s:", uuid.NewString()),
	}

	rp, err := NewRedisPersistence(cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}
	return rp
}

func TestNewRedisPersistence_InvalidConfig(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	_, err := NewRedisPersistence(nil, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be nil")

	_, err = NewRedisPersistence(&RedisConfig{}, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address cannot be empty")
}

func TestRedisPersistence_Classification(t *testing.T) {
	rp := requireRedis(t)
	defer func() { _ = rp.Close() }()

	addr := common.HexToAddress("0xAbCdEf0000000000000000000000000000000005")
	require.NoError(t, rp.SaveAccountClassification(&persistence.AccountClassification{
		Address:      addr.Hex(),
		Kind:         types.AccountKind_ContractMultisig,
		ClassifiedAt: time.Now().Unix(),
	}))

	loaded, err := rp.LoadAccountClassification(addr)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, types.AccountKind_ContractMultisig, loaded.Kind)

	missing, err := rp.LoadAccountClassification(common.HexToAddress("0x06"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisPersistence_SessionRecords(t *testing.T) {
	rp := requireRedis(t)
	defer func() { _ = rp.Close() }()

	for i := 3; i > 0; i-- {
		require.NoError(t, rp.SaveSessionRecord(&persistence.SessionRecord{
			SessionId:  fmt.Sprintf("session-%d", i),
			Phase:      types.SessionPhase_Complete,
			FinishedAt: int64(i),
		}))
	}

	records, err := rp.ListSessionRecords()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "session-1", records[0].SessionId)

	require.NoError(t, rp.DeleteSessionRecord("session-1"))
	loaded, err := rp.LoadSessionRecord("session-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	records, err = rp.ListSessionRecords()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRedisPersistence_Closed(t *testing.T) {
	rp := requireRedis(t)
	require.NoError(t, rp.HealthCheck())
	require.NoError(t, rp.Close())
	require.NoError(t, rp.Close())

	assert.Error(t, rp.HealthCheck())
	_, err := rp.ListSessionRecords()
	assert.Error(t, err)
}
