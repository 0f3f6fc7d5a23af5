package config

import (
	"errors"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *SignerConfig {
	cfg := &SignerConfig{
		AccountAddress: "0x1111111111111111111111111111111111111111",
		ChainID:        ChainId_CeloMainnet,
		RpcUrl:         "https://forno.celo.org",
		Wallet: WalletConfig{
			Type:       WalletType_Local,
			PrivateKey: "0xabc",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func signedApiKey(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.New()
	require.NoError(t, token.Set(jwt.ExpirationKey, exp))
	require.NoError(t, token.Set(jwt.SubjectKey, "signer"))
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), []byte("test-secret")))
	require.NoError(t, err)
	return string(signed)
}

func Test_GetSafeServiceNameForChain(t *testing.T) {
	t.Run("Celo", func(t *testing.T) {
		name, err := GetSafeServiceNameForChain(ChainId_CeloMainnet)
		require.NoError(t, err)
		assert.Equal(t, "celo", name)
	})
	t.Run("Unsupported", func(t *testing.T) {
		_, err := GetSafeServiceNameForChain(ChainId(999))
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrUnsupportedChain))
	})
}

func Test_ApplyDefaults(t *testing.T) {
	cfg := &SignerConfig{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultSafeServiceBaseUrl, cfg.SafeServiceUrl)
	assert.Equal(t, 6*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 60, cfg.Polling.MaxAttempts)
	assert.Equal(t, PersistenceType_Memory, cfg.Persistence.Type)
	assert.Equal(t, WalletType_Local, cfg.Wallet.Type)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func Test_SignerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *SignerConfig)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *SignerConfig) {},
		},
		{
			name:    "missing account",
			mutate:  func(c *SignerConfig) { c.AccountAddress = "" },
			wantErr: "account address is required",
		},
		{
			name:    "malformed account",
			mutate:  func(c *SignerConfig) { c.AccountAddress = "0x1234" },
			wantErr: "invalid address format",
		},
		{
			name:    "unknown chain",
			mutate:  func(c *SignerConfig) { c.ChainID = 5 },
			wantErr: "chainId",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *SignerConfig) { c.Polling.MaxAttempts = -1 },
			wantErr: "must be at least 1",
		},
		{
			name: "badger without path",
			mutate: func(c *SignerConfig) {
				c.Persistence.Type = PersistenceType_Badger
			},
			wantErr: "dataPath is required",
		},
		{
			name: "redis without address",
			mutate: func(c *SignerConfig) {
				c.Persistence.Type = PersistenceType_Redis
			},
			wantErr: "redisAddress is required",
		},
		{
			name: "web3signer without remote",
			mutate: func(c *SignerConfig) {
				c.Wallet = WalletConfig{Type: WalletType_Web3Signer}
			},
			wantErr: "remote signer config is required",
		},
		{
			name: "aws kms without key",
			mutate: func(c *SignerConfig) {
				c.Wallet = WalletConfig{Type: WalletType_AWSKMS}
			},
			wantErr: "awsKeyId is required",
		},
		{
			name:    "bad port",
			mutate:  func(c *SignerConfig) { c.Port = 70000 },
			wantErr: "port must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, ChainName_CeloMainnet, cfg.ChainName)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func Test_ValidateSafeApiKey(t *testing.T) {
	now := time.Now()

	t.Run("Empty key", func(t *testing.T) {
		assert.NoError(t, ValidateSafeApiKey("", now))
	})
	t.Run("Opaque key", func(t *testing.T) {
		assert.NoError(t, ValidateSafeApiKey("sk_live_abcdef", now))
	})
	t.Run("Unexpired token", func(t *testing.T) {
		key := signedApiKey(t, now.Add(time.Hour))
		assert.NoError(t, ValidateSafeApiKey(key, now))
	})
	t.Run("Expired token", func(t *testing.T) {
		key := signedApiKey(t, now.Add(-time.Hour))
		err := ValidateSafeApiKey(key, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})
	t.Run("Expired token fails config validation", func(t *testing.T) {
		cfg := validConfig()
		cfg.SafeApiKey = signedApiKey(t, now.Add(-time.Hour))
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "safeApiKey")
	})
}
