package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ persistence.ISignerPersistence = (*MemoryPersistence)(nil)

func TestMemoryPersistence_SaveAndLoadClassification(t *testing.T) {
	mp := NewMemoryPersistence()
	defer func() { _ = mp.Close() }()

	addr := common.HexToAddress("0xAbCdEf0000000000000000000000000000000001")
	err := mp.SaveAccountClassification(&persistence.AccountClassification{
		Address:      addr.Hex(),
		Kind:         types.AccountKind_ContractMultisig,
		ClassifiedAt: 100,
	})
	require.NoError(t, err)

	loaded, err := mp.LoadAccountClassification(addr)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, types.AccountKind_ContractMultisig, loaded.Kind)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", loaded.Address)

	// Mutating the returned value must not affect stored state
	loaded.Kind = types.AccountKind_ExternallyOwned
	again, err := mp.LoadAccountClassification(addr)
	require.NoError(t, err)
	assert.Equal(t, types.AccountKind_ContractMultisig, again.Kind)
}

func TestMemoryPersistence_LoadClassification_NotFound(t *testing.T) {
	mp := NewMemoryPersistence()
	defer func() { _ = mp.Close() }()

	loaded, err := mp.LoadAccountClassification(common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryPersistence_SaveNil(t *testing.T) {
	mp := NewMemoryPersistence()
	defer func() { _ = mp.Close() }()

	err := mp.SaveAccountClassification(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil AccountClassification")

	err = mp.SaveSessionRecord(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil SessionRecord")

	err = mp.SaveSessionRecord(&persistence.SessionRecord{})
	require.Error(t, err)
}

func TestMemoryPersistence_SessionRecords(t *testing.T) {
	mp := NewMemoryPersistence()
	defer func() { _ = mp.Close() }()

	for i := 3; i > 0; i-- {
		err := mp.SaveSessionRecord(&persistence.SessionRecord{
			SessionId:  fmt.Sprintf("session-%d", i),
			Phase:      types.SessionPhase_Signed,
			FinishedAt: int64(i * 10),
		})
		require.NoError(t, err)
	}

	records, err := mp.ListSessionRecords()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "session-1", records[0].SessionId)
	assert.Equal(t, "session-3", records[2].SessionId)

	loaded, err := mp.LoadSessionRecord("session-2")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(20), loaded.FinishedAt)

	require.NoError(t, mp.DeleteSessionRecord("session-2"))
	loaded, err = mp.LoadSessionRecord("session-2")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Idempotent delete
	require.NoError(t, mp.DeleteSessionRecord("session-2"))

	records, err = mp.ListSessionRecords()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMemoryPersistence_ListEmpty(t *testing.T) {
	mp := NewMemoryPersistence()
	defer func() { _ = mp.Close() }()

	records, err := mp.ListSessionRecords()
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestMemoryPersistence_Closed(t *testing.T) {
	mp := NewMemoryPersistence()
	require.NoError(t, mp.HealthCheck())

	require.NoError(t, mp.Close())
	require.NoError(t, mp.Close())

	err := mp.HealthCheck()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	_, err = mp.LoadAccountClassification(common.Address{})
	require.Error(t, err)
	_, err = mp.ListSessionRecords()
	require.Error(t, err)
	err = mp.SaveSessionRecord(&persistence.SessionRecord{SessionId: "a"})
	require.Error(t, err)
}

func TestMemoryPersistence_ConcurrentAccess(t *testing.T) {
	mp := NewMemoryPersistence()
	defer func() { _ = mp.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := common.BigToAddress(common.Big1).Hex()
			_ = mp.SaveAccountClassification(&persistence.AccountClassification{Address: addr, Kind: types.AccountKind(i % 2)})
			_ = mp.SaveSessionRecord(&persistence.SessionRecord{SessionId: fmt.Sprintf("s-%d", i)})
			_, _ = mp.LoadAccountClassification(common.BigToAddress(common.Big1))
			_, _ = mp.ListSessionRecords()
		}(i)
	}
	wg.Wait()

	records, err := mp.ListSessionRecords()
	require.NoError(t, err)
	assert.Len(t, records, 20)
}
