package testutil

import (
	"context"
	"sync"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// CollectionStep is one scripted poll response.
type CollectionStep struct {
	Confirmations     int
	PreparedSignature []byte
	Err               error
}

// Submission is an owner signature received by ScriptedCollectionSource,
// either as a new proposal or as a confirmation of an existing message.
type Submission struct {
	Safe            common.Address
	SafeMessageHash types.MessageHash
	Message         interface{}
	Signature       []byte
}

// ScriptedCollectionSource answers polls from a fixed script. Once the
// script is exhausted the last step repeats.
type ScriptedCollectionSource struct {
	// ProposeErr is returned by ProposeMessage when set.
	ProposeErr error
	// ConfirmErr is returned by ConfirmMessage when set.
	ConfirmErr error

	mu            sync.Mutex
	steps         []CollectionStep
	calls         int
	hashes        []types.MessageHash
	proposals     []Submission
	confirmations []Submission
}

func NewScriptedCollectionSource(steps ...CollectionStep) *ScriptedCollectionSource {
	return &ScriptedCollectionSource{steps: steps}
}

func (s *ScriptedCollectionSource) GetCollectionStatus(ctx context.Context, chainId config.ChainId, safeMessageHash types.MessageHash) (*types.SignatureCollectionStatus, error) {
	if _, err := config.GetSafeServiceNameForChain(chainId); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hashes = append(s.hashes, safeMessageHash)
	idx := s.calls
	s.calls++
	if len(s.steps) == 0 {
		return &types.SignatureCollectionStatus{}, nil
	}
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	step := s.steps[idx]
	if step.Err != nil {
		return nil, step.Err
	}
	return &types.SignatureCollectionStatus{
		Confirmations:     step.Confirmations,
		PreparedSignature: append([]byte(nil), step.PreparedSignature...),
	}, nil
}

func (s *ScriptedCollectionSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// PolledHashes returns the hashes polled so far, in order.
func (s *ScriptedCollectionSource) PolledHashes() []types.MessageHash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.MessageHash(nil), s.hashes...)
}

func (s *ScriptedCollectionSource) ProposeMessage(ctx context.Context, chainId config.ChainId, safe common.Address, message interface{}, signature []byte) error {
	if _, err := config.GetSafeServiceNameForChain(chainId); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.proposals = append(s.proposals, Submission{
		Safe:      safe,
		Message:   message,
		Signature: append([]byte(nil), signature...),
	})
	return s.ProposeErr
}

func (s *ScriptedCollectionSource) ConfirmMessage(ctx context.Context, chainId config.ChainId, safeMessageHash types.MessageHash, signature []byte) error {
	if _, err := config.GetSafeServiceNameForChain(chainId); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmations = append(s.confirmations, Submission{
		SafeMessageHash: safeMessageHash,
		Signature:       append([]byte(nil), signature...),
	})
	return s.ConfirmErr
}

// Proposals returns the messages proposed so far, in order.
func (s *ScriptedCollectionSource) Proposals() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.proposals...)
}

// Confirmations returns the signatures added to existing messages, in order.
func (s *ScriptedCollectionSource) Confirmations() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.confirmations...)
}
