// Package verifier checks a final signature against an account, by key
// recovery for externally owned accounts and through ERC-1271 for contract
// accounts.
package verifier

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/metrics"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// IContractSignatureValidator asks a contract account whether a signature
// over hash is valid.
type IContractSignatureValidator interface {
	IsValidSignature(ctx context.Context, account common.Address, hash types.MessageHash, signature []byte) (bool, error)
}

type Verifier struct {
	contracts IContractSignatureValidator
	logger    *zap.Logger
}

func NewVerifier(contracts IContractSignatureValidator, logger *zap.Logger) *Verifier {
	return &Verifier{
		contracts: contracts,
		logger:    logger,
	}
}

// Verify reports whether signature over hash is valid for account. Invalid
// or malformed signatures and failed contract calls yield Valid=false.
func (v *Verifier) Verify(ctx context.Context, hash types.MessageHash, signature []byte, account common.Address, kind types.AccountKind) types.VerificationResult {
	var result types.VerificationResult
	switch kind {
	case types.AccountKind_ContractMultisig:
		result = types.VerificationResult{
			Valid:  v.verifyContract(ctx, hash, signature, account),
			Method: types.VerificationMethod_ContractCheck,
		}
	default:
		result = types.VerificationResult{
			Valid:  v.verifyECDSA(hash, signature, account),
			Method: types.VerificationMethod_ECDSA,
		}
	}

	metrics.ObserveVerification(string(result.Method), result.Valid)
	if !result.Valid {
		v.logger.Sugar().Infow(types.ErrVerificationMismatch.Error(),
			"account", account.Hex(),
			"accountKind", kind.String(),
			"hash", hash.Hex(),
			"method", result.Method,
		)
	}
	return result
}

func (v *Verifier) verifyECDSA(hash types.MessageHash, signature []byte, account common.Address) bool {
	recovered, err := RecoverAddress(hash, signature)
	if err != nil {
		v.logger.Sugar().Debugw("Signature recovery failed", "error", err)
		return false
	}
	return recovered == account
}

func (v *Verifier) verifyContract(ctx context.Context, hash types.MessageHash, signature []byte, account common.Address) bool {
	valid, err := v.contracts.IsValidSignature(ctx, account, hash, signature)
	if err != nil {
		v.logger.Sugar().Warnw("Contract signature check failed",
			"account", account.Hex(),
			"error", err,
		)
		return false
	}
	return valid
}

// RecoverAddress returns the signer of hash. V may be 0/1 or 27/28.
func RecoverAddress(hash types.MessageHash, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(signature))
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
