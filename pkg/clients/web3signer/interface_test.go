package web3signer

import (
	"testing"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Test_ClientImplementsInterface verifies that Client implements IWeb3Signer
func Test_ClientImplementsInterface(t *testing.T) {
	client, err := NewClient(DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	var signer IWeb3Signer = client
	assert.NotNil(t, signer)
}

// Test_NewWeb3SignerClientFromRemoteSignerConfig verifies the config-based constructor
func Test_NewWeb3SignerClientFromRemoteSignerConfig(t *testing.T) {
	logger := zaptest.NewLogger(t)

	signer, err := NewWeb3SignerClientFromRemoteSignerConfig(nil, logger)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", signer.baseURL)

	signer, err = NewWeb3SignerClientFromRemoteSignerConfig(&config.RemoteSignerConfig{
		Url:         "http://signer:9000/",
		FromAddress: "0x01",
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, "http://signer:9000", signer.baseURL)

	_, err = NewWeb3SignerClientFromRemoteSignerConfig(&config.RemoteSignerConfig{
		Url:    "https://signer:9000",
		CACert: "not a pem",
	}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CA certificate")
}
