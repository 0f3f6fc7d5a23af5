package walletSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// LocalSigner signs with an in-process secp256k1 private key.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger
}

func NewLocalSigner(privateKey *ecdsa.PrivateKey, logger *zap.Logger) (*LocalSigner, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	return &LocalSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		logger:     logger,
	}, nil
}

// NewLocalSignerFromHex parses a hex private key, with or without 0x.
func NewLocalSignerFromHex(privateKeyHex string, logger *zap.Logger) (*LocalSigner, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewLocalSigner(pk, logger)
}

func (l *LocalSigner) Address() common.Address {
	return l.address
}

func (l *LocalSigner) SignTypedData(ctx context.Context, account common.Address, request *types.SigningRequest) ([]byte, error) {
	if err := checkAccount(l, account); err != nil {
		return nil, err
	}
	hash, err := typedData.Hash(request)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(hash.Bytes(), l.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	l.logger.Sugar().Debugw("Signed typed data with local key",
		"account", account.Hex(),
		"primaryType", request.PrimaryType,
		"hash", hash.Hex(),
	)
	return sig, nil
}
