package walletSigner

import (
	"context"
	"errors"
	"fmt"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/clients/web3signer"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Provider error code for a request the user declined (EIP-1193).
const userRejectedCode = 4001

// Web3WalletSigner delegates signing to a Web3Signer instance.
type Web3WalletSigner struct {
	client      web3signer.IWeb3Signer
	fromAddress common.Address
	logger      *zap.Logger
}

func NewWeb3WalletSigner(client web3signer.IWeb3Signer, fromAddress common.Address, logger *zap.Logger) *Web3WalletSigner {
	return &Web3WalletSigner{
		client:      client,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

func (w *Web3WalletSigner) Address() common.Address {
	return w.fromAddress
}

func (w *Web3WalletSigner) SignTypedData(ctx context.Context, account common.Address, request *types.SigningRequest) ([]byte, error) {
	if err := checkAccount(w, account); err != nil {
		return nil, err
	}
	payload, err := typedData.WalletPayload(request)
	if err != nil {
		return nil, err
	}

	w.logger.Sugar().Infow("Requesting typed data signature from Web3Signer",
		"account", account.Hex(),
		"primaryType", request.PrimaryType,
	)

	sigHex, err := w.client.EthSignTypedData(ctx, account.Hex(), payload)
	if err != nil {
		var rpcErr *web3signer.JsonRpcError
		if errors.As(err, &rpcErr) && rpcErr.Code == userRejectedCode {
			return nil, fmt.Errorf("%w: %s", types.ErrUserRejected, rpcErr.Message)
		}
		return nil, fmt.Errorf("failed to sign typed data with Web3Signer: %w", err)
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}
