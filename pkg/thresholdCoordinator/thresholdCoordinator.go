// Package thresholdCoordinator prepares multisig threshold state and polls
// the signature collection service until the threshold is met.
package thresholdCoordinator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/metrics"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ISafeReader reads the values Prepare needs from a Safe.
type ISafeReader interface {
	GetSafeMessage(ctx context.Context, safeAddress common.Address, chainId *big.Int, messageHash types.MessageHash) (*types.SigningRequest, error)
	GetThreshold(ctx context.Context, safeAddress common.Address) (uint64, error)
}

// ICollectionService is the off-chain service owners submit their
// signatures to. It reports how many co-signers confirmed a message.
type ICollectionService interface {
	ProposeMessage(ctx context.Context, chainId config.ChainId, safe common.Address, message interface{}, signature []byte) error
	ConfirmMessage(ctx context.Context, chainId config.ChainId, safeMessageHash types.MessageHash, signature []byte) error
	GetCollectionStatus(ctx context.Context, chainId config.ChainId, safeMessageHash types.MessageHash) (*types.SignatureCollectionStatus, error)
}

type SignalType string

const (
	SignalType_Progress SignalType = "progress"
	SignalType_Complete SignalType = "complete"
	SignalType_TimedOut SignalType = "timed-out"
	SignalType_Error    SignalType = "error"
)

// Signal is emitted by Collect. Complete, TimedOut and Error are final.
type Signal struct {
	Type          SignalType
	Confirmations uint64
	Threshold     uint64
	Signature     []byte
	Err           error
}

func (s Signal) IsFinal() bool {
	return s.Type != SignalType_Progress
}

type ThresholdCoordinator struct {
	safeReader ISafeReader
	source     ICollectionService
	polling    config.PollingConfig
	logger     *zap.Logger
}

func NewThresholdCoordinator(safeReader ISafeReader, source ICollectionService, polling config.PollingConfig, logger *zap.Logger) *ThresholdCoordinator {
	defaults := config.DefaultPollingConfig()
	if polling.Interval <= 0 {
		polling.Interval = defaults.Interval
	}
	if polling.MaxAttempts <= 0 {
		polling.MaxAttempts = defaults.MaxAttempts
	}
	return &ThresholdCoordinator{
		safeReader: safeReader,
		source:     source,
		polling:    polling,
		logger:     logger,
	}
}

// Prepare builds the SafeMessage wrapping messageHash, computes its hash and
// reads the threshold concurrently. Any failure is reported as
// ErrThresholdPrepare.
func (tc *ThresholdCoordinator) Prepare(ctx context.Context, messageHash types.MessageHash, account common.Address, chainId config.ChainId) (*types.ThresholdState, error) {
	var safeMessage *types.SigningRequest
	var wrappedHash types.MessageHash
	var threshold uint64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		request, err := tc.safeReader.GetSafeMessage(gctx, account, new(big.Int).SetUint64(uint64(chainId)), messageHash)
		if err != nil {
			return fmt.Errorf("failed to build Safe message: %w", err)
		}
		h, err := typedData.Hash(request)
		if err != nil {
			return fmt.Errorf("failed to compute Safe message hash: %w", err)
		}
		safeMessage = request
		wrappedHash = h
		return nil
	})
	g.Go(func() error {
		t, err := tc.safeReader.GetThreshold(gctx, account)
		if err != nil {
			return fmt.Errorf("failed to read threshold: %w", err)
		}
		threshold = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrThresholdPrepare, err)
	}
	if threshold == 0 {
		return nil, fmt.Errorf("%w: Safe %s reports a threshold of 0", types.ErrThresholdPrepare, account.Hex())
	}

	tc.logger.Sugar().Infow("Prepared multisig threshold state",
		"safe", account.Hex(),
		"messageHash", messageHash.Hex(),
		"safeMessageHash", wrappedHash.Hex(),
		"threshold", threshold,
	)

	return &types.ThresholdState{
		WrappedHash:   wrappedHash,
		SafeMessage:   safeMessage,
		Threshold:     threshold,
		Confirmations: 0,
		Status:        types.ThresholdStatus_Collecting,
	}, nil
}

// Propose submits state.OwnerSignature for request to the collection
// service so co-signers can confirm it. If another owner already proposed
// the message the signature is added as a confirmation. Unsupported chains
// fail with ErrUnsupportedChain before any request is made.
func (tc *ThresholdCoordinator) Propose(ctx context.Context, state *types.ThresholdState, account common.Address, request *types.SigningRequest, chainId config.ChainId) error {
	if _, err := config.GetSafeServiceNameForChain(chainId); err != nil {
		return err
	}
	if len(state.OwnerSignature) == 0 {
		return fmt.Errorf("%w: owner signature is missing", types.ErrMessageProposal)
	}
	payload, err := typedData.WalletPayload(request)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrMessageProposal, err)
	}

	err = tc.source.ProposeMessage(ctx, chainId, account, payload, state.OwnerSignature)
	if errors.Is(err, types.ErrMessageExists) {
		tc.logger.Sugar().Infow("Safe message already proposed, adding confirmation",
			"safe", account.Hex(),
			"safeMessageHash", state.WrappedHash.Hex(),
		)
		err = tc.source.ConfirmMessage(ctx, chainId, state.WrappedHash, state.OwnerSignature)
	}
	if err != nil {
		return err
	}

	tc.logger.Sugar().Infow("Submitted owner signature",
		"safe", account.Hex(),
		"safeMessageHash", state.WrappedHash.Hex(),
	)
	return nil
}

// Collect polls for confirmations of state.WrappedHash until the threshold is
// met, the attempt budget is exhausted or ctx is cancelled. The first poll
// happens one interval after the call and polls never overlap. The returned
// channel is closed when polling stops; nothing is sent after ctx is done.
func (tc *ThresholdCoordinator) Collect(ctx context.Context, state *types.ThresholdState, chainId config.ChainId) <-chan Signal {
	out := make(chan Signal)
	go tc.collect(ctx, state.Clone(), chainId, out)
	return out
}

func (tc *ThresholdCoordinator) emit(ctx context.Context, out chan<- Signal, s Signal) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

func (tc *ThresholdCoordinator) collect(ctx context.Context, state *types.ThresholdState, chainId config.ChainId, out chan<- Signal) {
	defer close(out)
	sugar := tc.logger.Sugar()

	if _, err := config.GetSafeServiceNameForChain(chainId); err != nil {
		sugar.Errorw("Cannot collect signatures", "chainId", chainId, "error", err)
		tc.emit(ctx, out, Signal{Type: SignalType_Error, Threshold: state.Threshold, Err: err})
		return
	}

	start := time.Now()
	defer func() { metrics.ObserveCollectionDuration(time.Since(start)) }()

	ticker := time.NewTicker(tc.polling.Interval)
	defer ticker.Stop()

	confirmations := state.Confirmations
	for attempt := 1; attempt <= tc.polling.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			sugar.Debugw("Signature collection cancelled", "safeMessageHash", state.WrappedHash.Hex())
			return
		case <-ticker.C:
		}

		pollCtx, cancel := context.WithTimeout(ctx, tc.polling.Interval)
		status, err := tc.source.GetCollectionStatus(pollCtx, chainId, state.WrappedHash)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			metrics.ObservePoll(metrics.PollResult_Error)
			if errors.Is(err, types.ErrUnsupportedChain) {
				tc.emit(ctx, out, Signal{Type: SignalType_Error, Confirmations: confirmations, Threshold: state.Threshold, Err: err})
				return
			}
			sugar.Warnw("Signature collection poll failed",
				"attempt", attempt,
				"safeMessageHash", state.WrappedHash.Hex(),
				"error", err,
			)
			continue
		}

		observed := uint64(0)
		if status.Confirmations > 0 {
			observed = uint64(status.Confirmations)
		}
		if observed > confirmations {
			confirmations = observed
		}

		if observed > 0 && observed == state.Threshold && len(status.PreparedSignature) > 0 {
			metrics.ObservePoll(metrics.PollResult_Complete)
			sugar.Infow("Multisig threshold reached",
				"safeMessageHash", state.WrappedHash.Hex(),
				"confirmations", observed,
				"threshold", state.Threshold,
				"attempt", attempt,
			)
			tc.emit(ctx, out, Signal{
				Type:          SignalType_Complete,
				Confirmations: confirmations,
				Threshold:     state.Threshold,
				Signature:     append([]byte(nil), status.PreparedSignature...),
			})
			return
		}
		metrics.ObservePoll(metrics.PollResult_Pending)

		if observed > 0 {
			if !tc.emit(ctx, out, Signal{Type: SignalType_Progress, Confirmations: confirmations, Threshold: state.Threshold}) {
				return
			}
		}
	}

	sugar.Warnw("Signature collection timed out",
		"safeMessageHash", state.WrappedHash.Hex(),
		"attempts", tc.polling.MaxAttempts,
		"confirmations", confirmations,
		"threshold", state.Threshold,
	)
	tc.emit(ctx, out, Signal{
		Type:          SignalType_TimedOut,
		Confirmations: confirmations,
		Threshold:     state.Threshold,
		Err:           types.ErrPollTimeout,
	})
}
