// Package orchestrator runs the signing state machine for a single active
// session:
//
//	Idle → HashComputed → AwaitingApproval → Signed
//	                                       → AwaitingThresholdPrep → Collecting → Complete | TimedOut | Error
//
// The request is hashed before the account is classified. Externally owned
// accounts finish in Signed once the wallet approves. For contract multisig
// accounts the owner key also signs the SafeMessage wrapping the hash, the
// message is proposed to the collection service and co-signer confirmations
// are collected in the background. Reset returns to Idle from any phase.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/metrics"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/thresholdCoordinator"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/walletSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IAccountClassifier interface {
	Classify(ctx context.Context, address common.Address) types.AccountKind
}

type IThresholdCoordinator interface {
	Prepare(ctx context.Context, messageHash types.MessageHash, account common.Address, chainId config.ChainId) (*types.ThresholdState, error)
	Propose(ctx context.Context, state *types.ThresholdState, account common.Address, request *types.SigningRequest, chainId config.ChainId) error
	Collect(ctx context.Context, state *types.ThresholdState, chainId config.ChainId) <-chan thresholdCoordinator.Signal
}

// EventHandler receives session events. It is called without the
// orchestrator lock held and must not block for long.
type EventHandler func(event types.SessionEvent)

type OrchestratorConfig struct {
	ChainId      config.ChainId
	EventHandler EventHandler
}

type Orchestrator struct {
	classifier  IAccountClassifier
	wallet      walletSigner.IWalletSigner
	coordinator IThresholdCoordinator
	store       persistence.ISignerPersistence
	chainId     config.ChainId
	onEvent     EventHandler
	logger      *zap.Logger

	mu         sync.Mutex
	session    *types.SigningSession
	protocol   signingProtocol
	cancel     context.CancelFunc
	generation uint64
	collecting chan struct{}
}

func NewOrchestrator(
	cfg *OrchestratorConfig,
	classifier IAccountClassifier,
	wallet walletSigner.IWalletSigner,
	coordinator IThresholdCoordinator,
	store persistence.ISignerPersistence,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier:  classifier,
		wallet:      wallet,
		coordinator: coordinator,
		store:       store,
		chainId:     cfg.ChainId,
		onEvent:     cfg.EventHandler,
		logger:      logger,
	}
}

// Session returns a copy of the active session, or nil when idle.
func (o *Orchestrator) Session() *types.SigningSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Clone()
}

func (o *Orchestrator) Phase() types.SessionPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return types.SessionPhase_Idle
	}
	return o.session.Phase
}

// isBusy reports whether the active session blocks a new submission.
// Sessions that produced a signature are replaced; every other phase,
// including TimedOut and Error, requires an explicit Reset.
func isBusy(session *types.SigningSession) bool {
	return session != nil && !session.Phase.IsFinal()
}

// Submit starts a signing session for account. It returns once the wallet
// approved and, for multisig accounts, once collection has started. Wait
// blocks until collection finishes.
func (o *Orchestrator) Submit(ctx context.Context, account common.Address, request *types.SigningRequest) (*types.SigningSession, error) {
	if request == nil {
		return nil, fmt.Errorf("%w: signing request is nil", types.ErrEncoding)
	}

	o.mu.Lock()
	if isBusy(o.session) {
		active := o.session
		o.mu.Unlock()
		o.logger.Sugar().Warnw("Rejected submission while a session is active",
			"activeSession", active.Id,
			"phase", active.Phase,
		)
		return nil, fmt.Errorf("%w: session %s is %s", types.ErrSessionBusy, active.Id, active.Phase)
	}
	finished := o.session
	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	gen := o.generation
	sessionCtx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.protocol = nil
	o.collecting = nil
	now := time.Now()
	o.session = &types.SigningSession{
		Id:        uuid.New().String(),
		Account:   account,
		ChainId:   uint64(o.chainId),
		Request:   request.Clone(),
		Phase:     types.SessionPhase_Idle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sessionId := o.session.Id
	o.mu.Unlock()

	o.saveRecord(finished)

	// the caller's context bounds the synchronous part only
	stepCtx, stopStep := context.WithCancel(sessionCtx)
	defer stopStep()
	stopAfter := context.AfterFunc(ctx, stopStep)
	defer stopAfter()

	hash, err := typedData.Hash(request)
	if err != nil {
		o.abort(gen, types.SessionEventType_Failed, err)
		return nil, err
	}
	if !o.transition(gen, types.SessionPhase_HashComputed, func(s *types.SigningSession) {
		s.MessageHash = &hash
	}) {
		return nil, types.ErrSessionReset
	}

	kind := o.classifier.Classify(stepCtx, account)
	metrics.ObserveSessionSubmitted(kind.String())

	var protocol signingProtocol
	var multisig *multisigProtocol
	switch kind {
	case types.AccountKind_ContractMultisig:
		multisig = newMultisigProtocol(o.wallet, o.coordinator)
		protocol = multisig
	default:
		protocol = newEOAProtocol(o.wallet)
	}

	if !o.update(gen, func(s *types.SigningSession) {
		s.AccountKind = kind
		o.protocol = protocol
	}) {
		protocol.Cancel()
		return nil, types.ErrSessionReset
	}

	o.logger.Sugar().Infow("Requesting wallet approval",
		"session", sessionId,
		"account", account.Hex(),
		"accountKind", kind.String(),
		"primaryType", request.PrimaryType,
		"messageHash", hash.Hex(),
	)
	if !o.transition(gen, types.SessionPhase_AwaitingApproval, nil) {
		return nil, types.ErrSessionReset
	}

	signature, err := protocol.RequestSignature(stepCtx, account, request)
	if !o.isCurrent(gen) {
		return nil, types.ErrSessionReset
	}
	if err != nil {
		return nil, o.signingFailed(gen, err)
	}

	switch kind {
	case types.AccountKind_ContractMultisig:
		return o.startCollection(sessionCtx, stepCtx, gen, multisig, account, request, hash)
	default:
		var out *types.SigningSession
		if !o.transition(gen, types.SessionPhase_Signed, func(s *types.SigningSession) {
			s.Signature = signature
			out = s.Clone()
		}) {
			return nil, types.ErrSessionReset
		}
		o.emit(types.SessionEvent{SessionId: sessionId, Type: types.SessionEventType_Completed, Phase: types.SessionPhase_Signed})
		return out, nil
	}
}

// signingFailed returns the session to Idle after a wallet error. User
// rejections are reported as ErrSigningCancelled.
func (o *Orchestrator) signingFailed(gen uint64, err error) error {
	if errors.Is(err, types.ErrUserRejected) {
		err = fmt.Errorf("%w: %w", types.ErrSigningCancelled, err)
		o.abort(gen, types.SessionEventType_Cancelled, err)
		return err
	}
	err = fmt.Errorf("%w: %w", types.ErrSigningFailed, err)
	o.abort(gen, types.SessionEventType_Failed, err)
	return err
}

func (o *Orchestrator) startCollection(
	sessionCtx, stepCtx context.Context,
	gen uint64,
	p *multisigProtocol,
	account common.Address,
	request *types.SigningRequest,
	hash types.MessageHash,
) (*types.SigningSession, error) {
	if !o.transition(gen, types.SessionPhase_AwaitingThresholdPrep, nil) {
		return nil, types.ErrSessionReset
	}

	state, err := p.Prepare(stepCtx, hash, account, o.chainId)
	if !o.isCurrent(gen) {
		return nil, types.ErrSessionReset
	}
	if err != nil {
		if !errors.Is(err, types.ErrThresholdPrepare) {
			err = fmt.Errorf("%w: %w", types.ErrThresholdPrepare, err)
		}
		o.abort(gen, types.SessionEventType_Failed, err)
		return nil, err
	}

	ownerSignature, err := p.SignSafeMessage(stepCtx, state)
	if !o.isCurrent(gen) {
		return nil, types.ErrSessionReset
	}
	if err != nil {
		return nil, o.signingFailed(gen, err)
	}
	state.OwnerSignature = ownerSignature

	err = p.Propose(stepCtx, state, account, request, o.chainId)
	if !o.isCurrent(gen) {
		return nil, types.ErrSessionReset
	}
	// an unsupported chain is reported by collection
	if err != nil && !errors.Is(err, types.ErrUnsupportedChain) {
		if !errors.Is(err, types.ErrMessageProposal) {
			err = fmt.Errorf("%w: %w", types.ErrMessageProposal, err)
		}
		o.abort(gen, types.SessionEventType_Failed, err)
		return nil, err
	}

	done := make(chan struct{})
	var out *types.SigningSession
	if !o.transition(gen, types.SessionPhase_Collecting, func(s *types.SigningSession) {
		s.ThresholdState = state.Clone()
		o.collecting = done
		out = s.Clone()
	}) {
		return nil, types.ErrSessionReset
	}

	signals := p.Collect(sessionCtx, state, o.chainId)
	go o.watch(gen, out.Id, signals, done)
	return out, nil
}

// watch applies collection signals to the session of generation gen.
// Signals arriving after a reset are dropped.
func (o *Orchestrator) watch(gen uint64, sessionId string, signals <-chan thresholdCoordinator.Signal, done chan struct{}) {
	defer close(done)
	for signal := range signals {
		var event types.SessionEvent
		applied := o.update(gen, func(s *types.SigningSession) {
			ts := s.ThresholdState
			if signal.Confirmations > ts.Confirmations {
				ts.Confirmations = signal.Confirmations
			}
			event = types.SessionEvent{
				SessionId:     sessionId,
				Confirmations: ts.Confirmations,
				Threshold:     ts.Threshold,
				Err:           signal.Err,
			}
			switch signal.Type {
			case thresholdCoordinator.SignalType_Progress:
				event.Type = types.SessionEventType_Progress
			case thresholdCoordinator.SignalType_Complete:
				ts.Status = types.ThresholdStatus_Complete
				s.Signature = append([]byte(nil), signal.Signature...)
				s.Phase = types.SessionPhase_Complete
				event.Type = types.SessionEventType_Completed
			case thresholdCoordinator.SignalType_TimedOut:
				ts.Status = types.ThresholdStatus_TimedOut
				s.Phase = types.SessionPhase_TimedOut
				s.LastError = errString(signal.Err)
				event.Type = types.SessionEventType_Failed
			case thresholdCoordinator.SignalType_Error:
				ts.Status = types.ThresholdStatus_Error
				s.Phase = types.SessionPhase_Error
				s.LastError = errString(signal.Err)
				event.Type = types.SessionEventType_Failed
			}
			event.Phase = s.Phase
		})
		if !applied {
			continue
		}
		if signal.IsFinal() {
			o.logger.Sugar().Infow("Signature collection finished",
				"session", sessionId,
				"phase", event.Phase,
				"confirmations", event.Confirmations,
				"threshold", event.Threshold,
			)
		}
		o.emit(event)
	}
}

// Wait blocks until background collection of the active session stops or
// ctx is done, then returns the session.
func (o *Orchestrator) Wait(ctx context.Context) (*types.SigningSession, error) {
	o.mu.Lock()
	done := o.collecting
	o.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	session := o.Session()
	if session == nil {
		return nil, types.ErrNoSession
	}
	return session, nil
}

// Reset discards the active session from any phase. In-flight wallet calls
// and polling are cancelled and their late results ignored.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	discarded := o.session
	protocol := o.protocol
	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	o.session = nil
	o.protocol = nil
	o.cancel = nil
	o.collecting = nil
	o.mu.Unlock()

	if protocol != nil {
		protocol.Cancel()
	}
	if discarded == nil {
		return
	}

	o.logger.Sugar().Infow("Signing session reset",
		"session", discarded.Id,
		"phase", discarded.Phase,
	)
	o.saveRecord(discarded)
	o.emit(types.SessionEvent{SessionId: discarded.Id, Type: types.SessionEventType_Reset, Phase: types.SessionPhase_Idle})
}

// Close resets the active session and records it.
func (o *Orchestrator) Close() {
	o.Reset()
}

func (o *Orchestrator) isCurrent(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation == gen && o.session != nil
}

func (o *Orchestrator) update(gen uint64, fn func(s *types.SigningSession)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen || o.session == nil {
		return false
	}
	fn(o.session)
	o.session.UpdatedAt = time.Now()
	return true
}

func (o *Orchestrator) transition(gen uint64, phase types.SessionPhase, fn func(s *types.SigningSession)) bool {
	var sessionId string
	ok := o.update(gen, func(s *types.SigningSession) {
		s.Phase = phase
		if fn != nil {
			fn(s)
		}
		sessionId = s.Id
	})
	if ok {
		o.emit(types.SessionEvent{SessionId: sessionId, Type: types.SessionEventType_PhaseChanged, Phase: phase})
	}
	return ok
}

// abort returns to Idle after a failed step and records the attempt.
func (o *Orchestrator) abort(gen uint64, eventType types.SessionEventType, cause error) {
	o.mu.Lock()
	if o.generation != gen || o.session == nil {
		o.mu.Unlock()
		return
	}
	failed := o.session
	failed.LastError = cause.Error()
	failed.UpdatedAt = time.Now()
	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	o.session = nil
	o.protocol = nil
	o.cancel = nil
	o.collecting = nil
	o.mu.Unlock()

	if eventType == types.SessionEventType_Cancelled {
		o.logger.Sugar().Infow("Signing cancelled by user", "session", failed.Id)
	} else {
		o.logger.Sugar().Errorw("Signing session failed",
			"session", failed.Id,
			"phase", failed.Phase,
			"error", cause,
		)
	}
	o.saveRecord(failed)
	o.emit(types.SessionEvent{SessionId: failed.Id, Type: eventType, Phase: types.SessionPhase_Idle, Err: cause})
}

func (o *Orchestrator) saveRecord(session *types.SigningSession) {
	if session == nil {
		return
	}
	metrics.ObserveSessionFinished(string(session.Phase))
	if o.store == nil {
		return
	}
	if err := o.store.SaveSessionRecord(persistence.NewSessionRecord(session, time.Now())); err != nil {
		o.logger.Sugar().Errorw("Failed to save session record",
			"session", session.Id,
			"error", err,
		)
	}
}

func (o *Orchestrator) emit(event types.SessionEvent) {
	if o.onEvent == nil {
		return
	}
	o.onEvent(event)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
