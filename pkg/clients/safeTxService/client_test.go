package safeTxService

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testHash = types.MessageHash{0x3b, 0x3b, 0x57, 0xb3}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(&ClientConfig{
		BaseUrl: url,
		ApiKey:  "test-key",
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *ClientConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "config cannot be nil"},
		{name: "missing url", cfg: &ClientConfig{Logger: zaptest.NewLogger(t)}, wantErr: "base url is required"},
		{name: "missing logger", cfg: &ClientConfig{BaseUrl: "http://localhost"}, wantErr: "logger is required"},
		{name: "valid", cfg: &ClientConfig{BaseUrl: "http://localhost/", Logger: zaptest.NewLogger(t), RatePerSecond: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestClient_MessageUrl(t *testing.T) {
	c := newTestClient(t, "https://api.safe.global/")

	url, err := c.MessageUrl(config.ChainId_CeloMainnet, testHash)
	require.NoError(t, err)
	assert.Equal(t, "https://api.safe.global/tx-service/celo/api/v1/messages/"+testHash.Hex()+"/", url)

	_, err = c.MessageUrl(config.ChainId(1), testHash)
	assert.True(t, errors.Is(err, types.ErrUnsupportedChain))
}

func TestClient_GetCollectionStatus(t *testing.T) {
	var lastAuth, lastPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		lastPath.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"safe": "0x5afe000000000000000000000000000000000001",
			"messageHash": "` + testHash.Hex() + `",
			"confirmations": [
				{"owner": "0x01", "signature": "0xaa", "signatureType": "EOA"},
				{"owner": "0x02", "signature": "0xbb", "signatureType": "EOA"}
			],
			"preparedSignature": "0xaabb"
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	status, err := c.GetCollectionStatus(context.Background(), config.ChainId_CeloMainnet, testHash)
	require.NoError(t, err)

	assert.Equal(t, 2, status.Confirmations)
	assert.Equal(t, []byte{0xaa, 0xbb}, status.PreparedSignature)
	assert.Equal(t, "Bearer test-key", lastAuth.Load())
	assert.Equal(t, "/tx-service/celo/api/v1/messages/"+testHash.Hex()+"/", lastPath.Load())
}

func TestClient_NullPreparedSignature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"confirmations": [{"owner": "0x01"}], "preparedSignature": null}`))
	}))
	defer server.Close()

	status, err := newTestClient(t, server.URL).GetCollectionStatus(context.Background(), config.ChainId_CeloMainnet, testHash)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Confirmations)
	assert.Nil(t, status.PreparedSignature)
}

func TestClient_Errors(t *testing.T) {
	t.Run("Non-OK status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetMessage(context.Background(), config.ChainId_CeloMainnet, testHash)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrPollTransport))
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("Malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetMessage(context.Background(), config.ChainId_CeloMainnet, testHash)
		assert.True(t, errors.Is(err, types.ErrPollTransport))
	})

	t.Run("Invalid prepared signature", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"confirmations": [], "preparedSignature": "zz"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetCollectionStatus(context.Background(), config.ChainId_CeloMainnet, testHash)
		assert.True(t, errors.Is(err, types.ErrPollTransport))
	})

	t.Run("Unsupported chain makes no request", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetMessage(context.Background(), config.ChainId(5), testHash)
		assert.True(t, errors.Is(err, types.ErrUnsupportedChain))
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("Cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestClient(t, server.URL).GetMessage(ctx, config.ChainId_CeloMainnet, testHash)
		assert.True(t, errors.Is(err, types.ErrPollTransport))
	})
}

func TestClient_ProposeMessage(t *testing.T) {
	safe := common.HexToAddress("0x5afe000000000000000000000000000000000001")
	message := map[string]interface{}{"primaryType": "Message"}

	t.Run("Posts the message and owner signature", func(t *testing.T) {
		var gotMethod, gotPath, gotBody atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod.Store(r.Method)
			gotPath.Store(r.URL.Path)
			var body ProposeMessageRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotBody.Store(body)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		err := newTestClient(t, server.URL).ProposeMessage(context.Background(), config.ChainId_CeloMainnet, safe, message, []byte{0xaa, 0xbb})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, gotMethod.Load())
		assert.Equal(t, "/tx-service/celo/api/v1/safes/"+safe.Hex()+"/messages/", gotPath.Load())
		got := gotBody.Load().(ProposeMessageRequest)
		assert.Equal(t, "0xaabb", got.Signature)
		assert.Equal(t, message, got.Message)
	})

	t.Run("Existing message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"nonFieldErrors":["Message with hash 0x01 for safe 0x02 already exists in DB"]}`))
		}))
		defer server.Close()

		err := newTestClient(t, server.URL).ProposeMessage(context.Background(), config.ChainId_CeloMainnet, safe, message, []byte{0x01})
		assert.True(t, errors.Is(err, types.ErrMessageExists))
	})

	t.Run("Rejected proposal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		err := newTestClient(t, server.URL).ProposeMessage(context.Background(), config.ChainId_CeloMainnet, safe, message, []byte{0x01})
		assert.True(t, errors.Is(err, types.ErrMessageProposal))
		assert.False(t, errors.Is(err, types.ErrMessageExists))
		assert.Contains(t, err.Error(), "422")
	})

	t.Run("Unsupported chain makes no request", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer server.Close()

		err := newTestClient(t, server.URL).ProposeMessage(context.Background(), config.ChainId(5), safe, message, []byte{0x01})
		assert.True(t, errors.Is(err, types.ErrUnsupportedChain))
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})
}

func TestClient_ConfirmMessage(t *testing.T) {
	var gotPath, gotBody atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		var body ConfirmMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotBody.Store(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	err := newTestClient(t, server.URL).ConfirmMessage(context.Background(), config.ChainId_CeloMainnet, testHash, []byte{0xcc})
	require.NoError(t, err)
	assert.Equal(t, "/tx-service/celo/api/v1/messages/"+testHash.Hex()+"/signatures/", gotPath.Load())
	assert.Equal(t, "0xcc", gotBody.Load().(ConfirmMessageRequest).Signature)
}
