package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const maxRequestBytes = 1 << 20

// SubmitRequest is the body of POST /session.
type SubmitRequest struct {
	Account string          `json:"account,omitempty"`
	Request json.RawMessage `json:"request"`
}

// VerifyRequest is the body of POST /verify. AccountKind is classified on
// chain when omitted.
type VerifyRequest struct {
	Hash        types.MessageHash  `json:"hash"`
	Signature   hexutil.Bytes      `json:"signature"`
	Account     common.Address     `json:"account"`
	AccountKind *types.AccountKind `json:"accountKind,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Sugar().Errorw("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), ErrorResponse{Error: err.Error()})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleGetSession(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Request) == 0 {
		http.Error(w, "request is required", http.StatusBadRequest)
		return
	}

	account := s.account
	if req.Account != "" {
		if !common.IsHexAddress(req.Account) {
			http.Error(w, "invalid account address", http.StatusBadRequest)
			return
		}
		account = common.HexToAddress(req.Account)
	}

	signingRequest, err := types.ParseSigningRequest(req.Request)
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.orchestrator.Submit(r.Context(), account, signingRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "true" {
		session, err := s.orchestrator.Wait(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, session)
		return
	}

	session := s.orchestrator.Session()
	if session == nil {
		s.writeError(w, types.ErrNoSession)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.orchestrator.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Hash.IsZero() {
		http.Error(w, "hash is required", http.StatusBadRequest)
		return
	}

	kind := types.AccountKind_ExternallyOwned
	if req.AccountKind != nil {
		kind = *req.AccountKind
	} else if s.classifier != nil {
		kind = s.classifier.Classify(r.Context(), req.Account)
	}

	result := s.verifier.Verify(r.Context(), req.Hash, req.Signature, req.Account, kind)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	records, err := s.store.ListSessionRecords()
	if err != nil {
		s.logger.Sugar().Errorw("Failed to list session records", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*persistence.SessionRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
