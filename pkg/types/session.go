package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SessionPhase is a state of the signing state machine.
type SessionPhase string

const (
	SessionPhase_Idle                  SessionPhase = "idle"
	SessionPhase_HashComputed          SessionPhase = "hash-computed"
	SessionPhase_AwaitingApproval      SessionPhase = "awaiting-approval"
	SessionPhase_Signed                SessionPhase = "signed"
	SessionPhase_AwaitingThresholdPrep SessionPhase = "awaiting-threshold-prep"
	SessionPhase_Collecting            SessionPhase = "collecting"
	SessionPhase_Complete              SessionPhase = "complete"
	SessionPhase_TimedOut              SessionPhase = "timed-out"
	SessionPhase_Error                 SessionPhase = "error"
)

// IsTerminal reports whether no further transition happens without a reset
// or a new submission.
func (p SessionPhase) IsTerminal() bool {
	switch p {
	case SessionPhase_Signed, SessionPhase_Complete, SessionPhase_TimedOut, SessionPhase_Error:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the phase produced a usable signature.
func (p SessionPhase) IsFinal() bool {
	return p == SessionPhase_Signed || p == SessionPhase_Complete
}

// ThresholdStatus is the collection status of a multisig session.
type ThresholdStatus string

const (
	ThresholdStatus_Collecting ThresholdStatus = "collecting"
	ThresholdStatus_Complete   ThresholdStatus = "complete"
	ThresholdStatus_TimedOut   ThresholdStatus = "timed-out"
	ThresholdStatus_Error      ThresholdStatus = "error"
)

// ThresholdState tracks confirmation collection for one multisig session.
type ThresholdState struct {
	WrappedHash MessageHash `json:"wrappedHash"`
	// SafeMessage is the typed request whose digest is WrappedHash.
	SafeMessage *SigningRequest `json:"safeMessage,omitempty"`
	// OwnerSignature is the submitting owner's signature over WrappedHash.
	OwnerSignature hexutil.Bytes   `json:"ownerSignature,omitempty"`
	Threshold      uint64          `json:"threshold"`
	Confirmations  uint64          `json:"confirmations"`
	Status         ThresholdStatus `json:"status"`
}

func (ts *ThresholdState) Clone() *ThresholdState {
	if ts == nil {
		return nil
	}
	c := *ts
	c.SafeMessage = ts.SafeMessage.Clone()
	if ts.OwnerSignature != nil {
		c.OwnerSignature = append(hexutil.Bytes(nil), ts.OwnerSignature...)
	}
	return &c
}

// SigningSession is the record of one signing attempt.
type SigningSession struct {
	Id             string          `json:"id"`
	Account        common.Address  `json:"account"`
	ChainId        uint64          `json:"chainId"`
	Request        *SigningRequest `json:"request"`
	AccountKind    AccountKind     `json:"accountKind"`
	MessageHash    *MessageHash    `json:"messageHash,omitempty"`
	Signature      hexutil.Bytes   `json:"signature,omitempty"`
	ThresholdState *ThresholdState `json:"thresholdState,omitempty"`
	Phase          SessionPhase    `json:"phase"`
	LastError      string          `json:"lastError,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy safe to hand out of the orchestrator.
func (s *SigningSession) Clone() *SigningSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Request = s.Request.Clone()
	if s.MessageHash != nil {
		h := *s.MessageHash
		c.MessageHash = &h
	}
	if s.Signature != nil {
		c.Signature = append(hexutil.Bytes(nil), s.Signature...)
	}
	c.ThresholdState = s.ThresholdState.Clone()
	return &c
}

// SessionEventType classifies events published by the orchestrator.
type SessionEventType string

const (
	SessionEventType_PhaseChanged SessionEventType = "phase-changed"
	SessionEventType_Progress     SessionEventType = "progress"
	SessionEventType_Cancelled    SessionEventType = "cancelled"
	SessionEventType_Failed       SessionEventType = "failed"
	SessionEventType_Completed    SessionEventType = "completed"
	SessionEventType_Reset        SessionEventType = "reset"
)

// SessionEvent is an informational notification about a session. It
// replaces UI toasts; consumers must not mutate sessions from a handler.
type SessionEvent struct {
	SessionId     string           `json:"sessionId"`
	Type          SessionEventType `json:"type"`
	Phase         SessionPhase     `json:"phase"`
	Confirmations uint64           `json:"confirmations,omitempty"`
	Threshold     uint64           `json:"threshold,omitempty"`
	Err           error            `json:"-"`
}
