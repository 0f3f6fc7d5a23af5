package walletSigner

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/eigenx-typed-signer/internal/aws"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/clients/web3signer"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// NewWalletSigner builds the signer selected by cfg.Type.
func NewWalletSigner(ctx context.Context, cfg *config.WalletConfig, logger *zap.Logger) (IWalletSigner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("wallet config cannot be nil")
	}

	switch cfg.Type {
	case config.WalletType_Local, "":
		signer, err := NewLocalSignerFromHex(cfg.PrivateKey, logger)
		if err != nil {
			return nil, err
		}
		return signer, nil

	case config.WalletType_Web3Signer:
		if cfg.Remote == nil {
			return nil, fmt.Errorf("remote signer config is required for web3signer")
		}
		client, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(cfg.Remote, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create web3signer client: %w", err)
		}
		if !common.IsHexAddress(cfg.Remote.FromAddress) {
			return nil, fmt.Errorf("invalid web3signer from address %q", cfg.Remote.FromAddress)
		}
		return NewWeb3WalletSigner(client, common.HexToAddress(cfg.Remote.FromAddress), logger), nil

	case config.WalletType_AWSKMS:
		awsCfg, err := aws.LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		aws.LogCallerIdentity(ctx, awsCfg, logger)

		signer := NewAWSKMSSigner(awsCfg, cfg.AWSKeyId, logger)
		if err := signer.LoadPublicKey(ctx); err != nil {
			return nil, err
		}
		logger.Sugar().Infow("Using AWS KMS signer",
			"keyId", cfg.AWSKeyId,
			"address", signer.Address().Hex(),
		)
		return signer, nil
	}
	return nil, fmt.Errorf("unsupported wallet type %q", cfg.Type)
}
