package main

import (
	"context"
	"math/big"
	"os"

	"github.com/Layr-Labs/eigenx-typed-signer/internal/aws"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/logger"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/verifier"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/walletSigner"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func main() {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	ctx := context.Background()

	keyId := os.Getenv("KEY_ID")
	if keyId == "" {
		l.Sugar().Fatal("KEY_ID environment variable is not set")
	}

	awsCfg, err := aws.LoadAWSConfig(ctx, os.Getenv("AWS_REGION"))
	if err != nil {
		l.Sugar().Fatalw("failed to load AWS config", "error", err)
	}
	aws.LogCallerIdentity(ctx, awsCfg, l)

	signer := walletSigner.NewAWSKMSSigner(awsCfg, keyId, l)
	if err := signer.LoadPublicKey(ctx); err != nil {
		l.Sugar().Fatalw("failed to load public key", "error", err)
	}

	request := &types.SigningRequest{
		Domain:      types.Domain{Name: "KMS Key Check", Version: "1", ChainId: big.NewInt(42220)},
		PrimaryType: "Check",
		Types: map[string][]types.TypedField{
			"Check": {{Name: "keyId", Type: "string"}},
		},
		Message: map[string]interface{}{"keyId": keyId},
	}
	hash, err := typedData.Hash(request)
	if err != nil {
		l.Sugar().Fatalw("failed to hash request", "error", err)
	}

	sig, err := signer.SignTypedData(ctx, signer.Address(), request)
	if err != nil {
		l.Sugar().Fatalw("failed to sign with KMS key", "error", err)
	}
	recovered, err := verifier.RecoverAddress(hash, sig)
	if err != nil {
		l.Sugar().Fatalw("failed to recover signer", "error", err)
	}

	l.Sugar().Infow("KMS key",
		"keyId", keyId,
		"address", signer.Address().Hex(),
		"hash", hash.Hex(),
		"signature", hexutil.Encode(sig),
		"recovered", recovered.Hex(),
		"match", recovered == signer.Address(),
	)
}
