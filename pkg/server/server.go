// Package server exposes the signing orchestrator and the verifier over HTTP.
//
//	POST /session        submit a signing request for the configured account
//	GET  /session        snapshot of the active session (?wait=true blocks until collection stops)
//	POST /session/reset  discard the active session
//	POST /verify         verify a signature for an account
//	GET  /sessions       recorded sessions
//	GET  /health         persistence health
//	GET  /metrics        Prometheus metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/metrics"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type ISessionOrchestrator interface {
	Submit(ctx context.Context, account common.Address, request *types.SigningRequest) (*types.SigningSession, error)
	Session() *types.SigningSession
	Wait(ctx context.Context) (*types.SigningSession, error)
	Reset()
}

type IVerifier interface {
	Verify(ctx context.Context, hash types.MessageHash, signature []byte, account common.Address, kind types.AccountKind) types.VerificationResult
}

type IAccountClassifier interface {
	Classify(ctx context.Context, address common.Address) types.AccountKind
}

type ServerConfig struct {
	Port int
	// DefaultAccount signs when a submission names no account
	DefaultAccount common.Address
}

type Server struct {
	orchestrator ISessionOrchestrator
	verifier     IVerifier
	classifier   IAccountClassifier
	store        persistence.ISignerPersistence
	account      common.Address
	logger       *zap.Logger
	httpServer   *http.Server
}

func NewServer(
	cfg *ServerConfig,
	orchestrator ISessionOrchestrator,
	verifier IVerifier,
	classifier IAccountClassifier,
	store persistence.ISignerPersistence,
	logger *zap.Logger,
) *Server {
	s := &Server{
		orchestrator: orchestrator,
		verifier:     verifier,
		classifier:   classifier,
		store:        store,
		account:      cfg.DefaultAccount,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/session", s.handleSession)
	mux.HandleFunc("/session/reset", s.handleReset)
	mux.HandleFunc("/verify", s.handleVerify)
	mux.HandleFunc("/sessions", s.handleListSessions)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves in the background.
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "port", s.httpServer.Addr, "account", s.account.Hex())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

// statusForError maps session errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrEncoding):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrSessionBusy), errors.Is(err, types.ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, types.ErrSigningCancelled):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrThresholdPrepare), errors.Is(err, types.ErrMessageProposal), errors.Is(err, types.ErrSigningFailed):
		return http.StatusBadGateway
	case errors.Is(err, types.ErrNoSession):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
