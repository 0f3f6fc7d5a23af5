package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/thresholdCoordinator"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/walletSigner"
	"github.com/ethereum/go-ethereum/common"
)

// signingProtocol is the capability set a session needs from its account
// kind. Cancel aborts whatever the protocol has in flight.
type signingProtocol interface {
	RequestSignature(ctx context.Context, account common.Address, request *types.SigningRequest) ([]byte, error)
	Cancel()
}

// cancelSet tracks the cancel funcs of a protocol's in-flight calls.
type cancelSet struct {
	mu        sync.Mutex
	cancels   []context.CancelFunc
	cancelled bool
}

func (c *cancelSet) derive(ctx context.Context) (context.Context, context.CancelFunc) {
	child, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		cancel()
	} else {
		c.cancels = append(c.cancels, cancel)
	}
	return child, cancel
}

func (c *cancelSet) cancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}

type eoaProtocol struct {
	wallet   walletSigner.IWalletSigner
	inFlight cancelSet
}

func newEOAProtocol(wallet walletSigner.IWalletSigner) *eoaProtocol {
	return &eoaProtocol{wallet: wallet}
}

func (p *eoaProtocol) RequestSignature(ctx context.Context, account common.Address, request *types.SigningRequest) ([]byte, error) {
	ctx, cancel := p.inFlight.derive(ctx)
	defer cancel()
	return p.wallet.SignTypedData(ctx, account, request)
}

func (p *eoaProtocol) Cancel() {
	p.inFlight.cancelAll()
}

// multisigProtocol has the wallet approve the request as a Safe owner, signs
// the SafeMessage wrapping its hash and hands it to the threshold coordinator.
type multisigProtocol struct {
	eoaProtocol
	coordinator IThresholdCoordinator
}

func newMultisigProtocol(wallet walletSigner.IWalletSigner, coordinator IThresholdCoordinator) *multisigProtocol {
	return &multisigProtocol{
		eoaProtocol: eoaProtocol{wallet: wallet},
		coordinator: coordinator,
	}
}

// RequestSignature asks the wallet for the owner's approval of the request.
// The wallet signs with its own key; the Safe's signature is collected from
// the co-signers.
func (p *multisigProtocol) RequestSignature(ctx context.Context, account common.Address, request *types.SigningRequest) ([]byte, error) {
	return p.eoaProtocol.RequestSignature(ctx, p.wallet.Address(), request)
}

// SignSafeMessage signs state.SafeMessage with the owner key. The result is
// the owner's confirmation of state.WrappedHash.
func (p *multisigProtocol) SignSafeMessage(ctx context.Context, state *types.ThresholdState) ([]byte, error) {
	if state.SafeMessage == nil {
		return nil, fmt.Errorf("%w: Safe message is missing", types.ErrEncoding)
	}
	ctx, cancel := p.inFlight.derive(ctx)
	defer cancel()
	return p.wallet.SignTypedData(ctx, p.wallet.Address(), state.SafeMessage)
}

func (p *multisigProtocol) Propose(ctx context.Context, state *types.ThresholdState, account common.Address, request *types.SigningRequest, chainId config.ChainId) error {
	ctx, cancel := p.inFlight.derive(ctx)
	defer cancel()
	return p.coordinator.Propose(ctx, state, account, request, chainId)
}

func (p *multisigProtocol) Prepare(ctx context.Context, messageHash types.MessageHash, account common.Address, chainId config.ChainId) (*types.ThresholdState, error) {
	ctx, cancel := p.inFlight.derive(ctx)
	defer cancel()
	return p.coordinator.Prepare(ctx, messageHash, account, chainId)
}

// Collect starts polling. The poll loop runs until it finishes or Cancel is called.
func (p *multisigProtocol) Collect(ctx context.Context, state *types.ThresholdState, chainId config.ChainId) <-chan thresholdCoordinator.Signal {
	ctx, _ = p.inFlight.derive(ctx)
	return p.coordinator.Collect(ctx, state, chainId)
}
