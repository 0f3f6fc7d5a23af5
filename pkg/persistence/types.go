package persistence

import (
	"sort"
	"strings"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// AccountClassification is the cached account kind of one address.
type AccountClassification struct {
	// Address is the lowercase hex address; the cache key.
	Address string `json:"address"`

	Kind types.AccountKind `json:"kind"`

	// ClassifiedAt is the Unix timestamp of the chain lookup.
	ClassifiedAt int64 `json:"classifiedAt"`
}

// AddressKey returns the canonical key for an address.
func AddressKey(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// SessionRecord captures the outcome of a signing session once it is
// finalized by a new submission or abandoned by a reset.
type SessionRecord struct {
	SessionId   string            `json:"sessionId"`
	Account     string            `json:"account"`
	ChainId     uint64            `json:"chainId"`
	AccountKind types.AccountKind `json:"accountKind"`
	PrimaryType string            `json:"primaryType"`

	// MessageHash and Signature are 0x-prefixed hex, empty when never produced.
	MessageHash string `json:"messageHash,omitempty"`
	Signature   string `json:"signature,omitempty"`

	// Multisig collection details
	WrappedHash   string `json:"wrappedHash,omitempty"`
	Threshold     uint64 `json:"threshold,omitempty"`
	Confirmations uint64 `json:"confirmations,omitempty"`

	// Phase is the phase the session was in when it was recorded.
	Phase     types.SessionPhase `json:"phase"`
	LastError string             `json:"lastError,omitempty"`

	CreatedAt  int64 `json:"createdAt"`
	FinishedAt int64 `json:"finishedAt"`
}

// NewSessionRecord builds a record from a session snapshot.
func NewSessionRecord(session *types.SigningSession, finishedAt time.Time) *SessionRecord {
	if session == nil {
		return nil
	}
	record := &SessionRecord{
		SessionId:   session.Id,
		Account:     AddressKey(session.Account),
		ChainId:     session.ChainId,
		AccountKind: session.AccountKind,
		Phase:       session.Phase,
		LastError:   session.LastError,
		CreatedAt:   session.CreatedAt.Unix(),
		FinishedAt:  finishedAt.Unix(),
	}
	if session.Request != nil {
		record.PrimaryType = session.Request.PrimaryType
	}
	if session.MessageHash != nil {
		record.MessageHash = session.MessageHash.Hex()
	}
	if len(session.Signature) > 0 {
		record.Signature = session.Signature.String()
	}
	if ts := session.ThresholdState; ts != nil {
		record.WrappedHash = ts.WrappedHash.Hex()
		record.Threshold = ts.Threshold
		record.Confirmations = ts.Confirmations
	}
	return record
}

// SortSessionRecords orders records by FinishedAt, then by id.
func SortSessionRecords(records []*SessionRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].FinishedAt != records[j].FinishedAt {
			return records[i].FinishedAt < records[j].FinishedAt
		}
		return records[i].SessionId < records[j].SessionId
	})
}
