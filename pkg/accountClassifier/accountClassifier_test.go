package accountClassifier

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeCodeReader struct {
	mu    sync.Mutex
	code  map[common.Address][]byte
	err   error
	calls int
}

func (f *fakeCodeReader) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.code[account], nil
}

var (
	eoaAddress  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	safeAddress = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func Test_Classify(t *testing.T) {
	reader := &fakeCodeReader{code: map[common.Address][]byte{
		safeAddress: {0x60, 0x80, 0x60, 0x40},
	}}
	ac := NewAccountClassifier(reader, nil, zaptest.NewLogger(t))

	t.Run("Address without code is externally owned", func(t *testing.T) {
		assert.Equal(t, types.AccountKind_ExternallyOwned, ac.Classify(context.Background(), eoaAddress))
	})

	t.Run("Address with code is a multisig", func(t *testing.T) {
		assert.Equal(t, types.AccountKind_ContractMultisig, ac.Classify(context.Background(), safeAddress))
	})

	t.Run("Results are cached per address", func(t *testing.T) {
		before := reader.calls
		for i := 0; i < 3; i++ {
			ac.Classify(context.Background(), safeAddress)
			ac.Classify(context.Background(), eoaAddress)
		}
		assert.Equal(t, before, reader.calls)
	})
}

func Test_ClassifyLookupFailure(t *testing.T) {
	reader := &fakeCodeReader{err: errors.New("rpc unavailable")}
	store := memory.NewMemoryPersistence()
	ac := NewAccountClassifier(reader, store, zaptest.NewLogger(t))

	kind := ac.Classify(context.Background(), safeAddress)
	assert.Equal(t, types.AccountKind_ExternallyOwned, kind)

	// Failures are not cached
	cached, err := store.LoadAccountClassification(safeAddress)
	require.NoError(t, err)
	assert.Nil(t, cached)

	reader.mu.Lock()
	reader.err = nil
	reader.code = map[common.Address][]byte{safeAddress: {0x01}}
	reader.mu.Unlock()

	assert.Equal(t, types.AccountKind_ContractMultisig, ac.Classify(context.Background(), safeAddress))
	assert.Equal(t, 2, reader.calls)
}

func Test_ClassifyUsesSharedStore(t *testing.T) {
	store := memory.NewMemoryPersistence()
	reader := &fakeCodeReader{code: map[common.Address][]byte{safeAddress: {0x01}}}

	first := NewAccountClassifier(reader, store, zaptest.NewLogger(t))
	assert.Equal(t, types.AccountKind_ContractMultisig, first.Classify(context.Background(), safeAddress))

	failing := &fakeCodeReader{err: errors.New("should not be called")}
	second := NewAccountClassifier(failing, store, zaptest.NewLogger(t))
	assert.Equal(t, types.AccountKind_ContractMultisig, second.Classify(context.Background(), safeAddress))
	assert.Equal(t, 0, failing.calls)
}

func Test_ClassifyStoreFailure(t *testing.T) {
	store := memory.NewMemoryPersistence()
	require.NoError(t, store.Close())

	reader := &fakeCodeReader{code: map[common.Address][]byte{safeAddress: {0x01}}}
	ac := NewAccountClassifier(reader, store, zaptest.NewLogger(t))

	// A broken cache degrades to a lookup on every call
	assert.Equal(t, types.AccountKind_ContractMultisig, ac.Classify(context.Background(), safeAddress))
	assert.Equal(t, types.AccountKind_ContractMultisig, ac.Classify(context.Background(), safeAddress))
	assert.Equal(t, 2, reader.calls)
}
