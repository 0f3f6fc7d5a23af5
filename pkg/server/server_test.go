package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/accountClassifier"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/orchestrator"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/safe"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/testutil"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/thresholdCoordinator"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/verifier"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/walletSigner"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const requestJSON = `{
	"domain": {"name": "X", "version": "1", "chainId": 42220},
	"primaryType": "Message",
	"types": {"Message": [{"name": "content", "type": "string"}, {"name": "timestamp", "type": "uint256"}]},
	"message": {"content": "approve", "timestamp": 1700000000}
}`

type testServer struct {
	server *Server
	wallet *walletSigner.LocalSigner
	store  *memory.MemoryPersistence
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet, err := walletSigner.NewLocalSigner(key, logger)
	require.NoError(t, err)

	backend := testutil.NewMockSafeBackend()
	backend.NoCode = true
	store := memory.NewMemoryPersistence()
	safeCaller := safe.NewSafeCaller(backend, logger)
	classifier := accountClassifier.NewAccountClassifier(backend, store, logger)
	coordinator := thresholdCoordinator.NewThresholdCoordinator(safeCaller, testutil.NewScriptedCollectionSource(), config.PollingConfig{Interval: 10 * time.Millisecond, MaxAttempts: 2}, logger)

	o := orchestrator.NewOrchestrator(&orchestrator.OrchestratorConfig{ChainId: config.ChainId_CeloMainnet}, classifier, wallet, coordinator, store, logger)
	v := verifier.NewVerifier(safeCaller, logger)

	s := NewServer(&ServerConfig{Port: 0, DefaultAccount: wallet.Address()}, o, v, classifier, store, logger)
	return &testServer{server: s, wallet: wallet, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	ts.server.GetHandler().ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) *types.SigningSession {
	t.Helper()
	var session types.SigningSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	return &session
}

func Test_SubmitAndVerify(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/session", SubmitRequest{Request: json.RawMessage(requestJSON)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decodeSession(t, w)
	assert.Equal(t, types.SessionPhase_Signed, session.Phase)
	assert.Equal(t, types.AccountKind_ExternallyOwned, session.AccountKind)
	require.NotNil(t, session.MessageHash)

	w = ts.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.Id, decodeSession(t, w).Id)

	t.Run("Valid signature", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/verify", VerifyRequest{
			Hash:      *session.MessageHash,
			Signature: session.Signature,
			Account:   ts.wallet.Address(),
		})
		require.Equal(t, http.StatusOK, w.Code)
		var result types.VerificationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, types.VerificationResult{Valid: true, Method: types.VerificationMethod_ECDSA}, result)
	})

	t.Run("Tampered signature", func(t *testing.T) {
		tampered := append(hexutil.Bytes(nil), session.Signature...)
		tampered[10] ^= 0xff
		w := ts.do(t, http.MethodPost, "/verify", VerifyRequest{
			Hash:      *session.MessageHash,
			Signature: tampered,
			Account:   ts.wallet.Address(),
		})
		require.Equal(t, http.StatusOK, w.Code)
		var result types.VerificationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.Valid)
	})
}

func Test_SubmitErrors(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Malformed body", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/session", "not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing request", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/session", SubmitRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Field set mismatch", func(t *testing.T) {
		bad := `{"domain":{"name":"X","chainId":1},"primaryType":"Message","types":{"Message":[{"name":"content","type":"string"}]},"message":{"other":"x"}}`
		w := ts.do(t, http.MethodPost, "/session", SubmitRequest{Request: json.RawMessage(bad)})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, types.ErrEncoding.Error())
	})

	t.Run("Invalid account", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/session", SubmitRequest{Account: "0x12", Request: json.RawMessage(requestJSON)})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Method not allowed", func(t *testing.T) {
		w := ts.do(t, http.MethodDelete, "/session", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		w = ts.do(t, http.MethodGet, "/session/reset", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func Test_ResetAndRecords(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/session", SubmitRequest{Request: json.RawMessage(requestJSON)})
	require.Equal(t, http.StatusOK, w.Code)
	session := decodeSession(t, w)

	w = ts.do(t, http.MethodPost, "/session/reset", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []*persistence.SessionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, session.Id, records[0].SessionId)
	assert.Equal(t, types.SessionPhase_Signed, records[0].Phase)
}

func Test_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, ts.store.Close())
	w = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func Test_StartStop(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.server.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ts.server.Stop(ctx))
}
