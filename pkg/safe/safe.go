// Package safe reads Safe multisig contracts and computes Safe message hashes.
package safe

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/middleware-bindings/ISafe"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const SafeMessageType = "SafeMessage"

var (
	// MagicValue is returned by isValidSignature(bytes32,bytes).
	MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}
	// LegacyMagicValue is returned by isValidSignature(bytes,bytes).
	LegacyMagicValue = [4]byte{0x20, 0xc1, 0x3b, 0x0b}
)

// IsMagicValue reports whether v is either ERC-1271 success value.
func IsMagicValue(v [4]byte) bool {
	return v == MagicValue || v == LegacyMagicValue
}

// DomainIncludesChainId reports whether the Safe domain separator of the
// given contract version includes the chain id. Versions before 1.3.0 only
// commit to the verifying contract. Unparseable versions are treated as
// current.
func DomainIncludesChainId(version string) bool {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if i := strings.IndexAny(v, "+-"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	nums := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return true
		}
		nums[i] = n
	}
	if nums[0] != 1 {
		return nums[0] > 1
	}
	return nums[1] >= 3
}

// SafeMessageRequest returns SafeMessage(bytes message) over messageHash as
// a typed request under the domain of the Safe at safeAddress. Its digest is
// the hash owners sign and co-signers confirm.
func SafeMessageRequest(safeAddress common.Address, chainId *big.Int, version string, messageHash types.MessageHash) (*types.SigningRequest, error) {
	domain := types.Domain{VerifyingContract: &safeAddress}
	if DomainIncludesChainId(version) {
		if chainId == nil {
			return nil, fmt.Errorf("%w: chain id is required for Safe version %s", types.ErrEncoding, version)
		}
		domain.ChainId = new(big.Int).Set(chainId)
	}
	return &types.SigningRequest{
		Domain:      domain,
		PrimaryType: SafeMessageType,
		Types: map[string][]types.TypedField{
			SafeMessageType: {{Name: "message", Type: "bytes"}},
		},
		Message: map[string]interface{}{
			"message": hexutil.Bytes(messageHash.Bytes()),
		},
	}, nil
}

// ComputeSafeMessageHash returns the EIP-712 hash of SafeMessage(bytes message)
// where message is messageHash, under the domain of the Safe at safeAddress.
func ComputeSafeMessageHash(safeAddress common.Address, chainId *big.Int, version string, messageHash types.MessageHash) (types.MessageHash, error) {
	request, err := SafeMessageRequest(safeAddress, chainId, version, messageHash)
	if err != nil {
		return types.MessageHash{}, err
	}
	return typedData.Hash(request)
}

// SafeCaller performs read-only calls against Safe contracts.
type SafeCaller struct {
	backend bind.ContractCaller
	logger  *zap.Logger
}

func NewSafeCaller(backend bind.ContractCaller, logger *zap.Logger) *SafeCaller {
	return &SafeCaller{
		backend: backend,
		logger:  logger,
	}
}

func (sc *SafeCaller) bind(safeAddress common.Address) (*ISafe.ISafeCaller, error) {
	caller, err := ISafe.NewISafeCaller(safeAddress, sc.backend)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to bind Safe contract at %s", safeAddress.Hex())
	}
	return caller, nil
}

func (sc *SafeCaller) GetVersion(ctx context.Context, safeAddress common.Address) (string, error) {
	caller, err := sc.bind(safeAddress)
	if err != nil {
		return "", err
	}
	version, err := caller.VERSION(&bind.CallOpts{Context: ctx})
	if err != nil {
		return "", errors.Wrapf(err, "failed to read VERSION of Safe %s", safeAddress.Hex())
	}
	return version, nil
}

func (sc *SafeCaller) GetThreshold(ctx context.Context, safeAddress common.Address) (uint64, error) {
	caller, err := sc.bind(safeAddress)
	if err != nil {
		return 0, err
	}
	threshold, err := caller.GetThreshold(&bind.CallOpts{Context: ctx})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read threshold of Safe %s", safeAddress.Hex())
	}
	if threshold == nil || !threshold.IsUint64() {
		return 0, fmt.Errorf("threshold of Safe %s is out of range: %v", safeAddress.Hex(), threshold)
	}
	return threshold.Uint64(), nil
}

func (sc *SafeCaller) GetOwners(ctx context.Context, safeAddress common.Address) ([]common.Address, error) {
	caller, err := sc.bind(safeAddress)
	if err != nil {
		return nil, err
	}
	owners, err := caller.GetOwners(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read owners of Safe %s", safeAddress.Hex())
	}
	return owners, nil
}

// GetSafeMessage reads the Safe version and builds the SafeMessage request
// for messageHash.
func (sc *SafeCaller) GetSafeMessage(ctx context.Context, safeAddress common.Address, chainId *big.Int, messageHash types.MessageHash) (*types.SigningRequest, error) {
	version, err := sc.GetVersion(ctx, safeAddress)
	if err != nil {
		return nil, err
	}
	request, err := SafeMessageRequest(safeAddress, chainId, version, messageHash)
	if err != nil {
		return nil, err
	}
	sc.logger.Sugar().Debugw("Built Safe message",
		"safe", safeAddress.Hex(),
		"version", version,
		"messageHash", messageHash.Hex(),
	)
	return request, nil
}

// GetSafeMessageHash returns the hash co-signers confirm for messageHash.
func (sc *SafeCaller) GetSafeMessageHash(ctx context.Context, safeAddress common.Address, chainId *big.Int, messageHash types.MessageHash) (types.MessageHash, error) {
	request, err := sc.GetSafeMessage(ctx, safeAddress, chainId, messageHash)
	if err != nil {
		return types.MessageHash{}, err
	}
	return typedData.Hash(request)
}

// IsValidSignature asks the Safe to validate signature over hash through
// ERC-1271. isValidSignature(bytes,bytes) is tried first with the hash as
// data; when that call fails isValidSignature(bytes32,bytes) is used. An
// error is returned only when both calls fail.
func (sc *SafeCaller) IsValidSignature(ctx context.Context, safeAddress common.Address, hash types.MessageHash, signature []byte) (bool, error) {
	caller, err := sc.bind(safeAddress)
	if err != nil {
		return false, err
	}
	opts := &bind.CallOpts{Context: ctx, From: safeAddress}

	result, err := caller.IsValidSignature(opts, hash.Bytes(), signature)
	if err == nil {
		return IsMagicValue(result), nil
	}
	sc.logger.Sugar().Debugw("isValidSignature(bytes,bytes) failed, trying bytes32 overload",
		"safe", safeAddress.Hex(),
		"error", err,
	)

	result, err = caller.IsValidSignature0(opts, hash, signature)
	if err != nil {
		return false, errors.Wrapf(err, "isValidSignature failed for Safe %s", safeAddress.Hex())
	}
	return IsMagicValue(result), nil
}
