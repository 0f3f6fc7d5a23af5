package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const requestJSON = `{"domain":{"name":"X","version":"1","chainId":42220},"primaryType":"Message","types":{"Message":[{"name":"content","type":"string"}]},"message":{"content":"hi"}}`

func Test_ReadRequest(t *testing.T) {
	t.Run("Inline JSON", func(t *testing.T) {
		req, err := readRequest(requestJSON)
		require.NoError(t, err)
		assert.Equal(t, "Message", req.PrimaryType)
	})

	t.Run("File path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "request.json")
		require.NoError(t, os.WriteFile(path, []byte(requestJSON), 0o600))
		req, err := readRequest(path)
		require.NoError(t, err)
		assert.Equal(t, "hi", req.Message["content"])
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := readRequest(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})
}

func Test_NewStore(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("Memory", func(t *testing.T) {
		store, err := newStore(config.PersistenceConfig{Type: config.PersistenceType_Memory}, logger)
		require.NoError(t, err)
		assert.IsType(t, &memory.MemoryPersistence{}, store)
	})

	t.Run("Badger", func(t *testing.T) {
		store, err := newStore(config.PersistenceConfig{Type: config.PersistenceType_Badger, DataPath: t.TempDir()}, logger)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.NoError(t, store.HealthCheck())
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := newStore(config.PersistenceConfig{Type: "sqlite"}, logger)
		require.Error(t, err)
	})
}

func Test_ParseAccount(t *testing.T) {
	addr, err := parseAccount("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", addr.Hex())

	_, err = parseAccount("0x1234")
	require.Error(t, err)
}
