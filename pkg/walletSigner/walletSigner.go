// Package walletSigner provides the wallet signing capability used by the
// orchestrator. Every implementation signs the EIP-712 digest of the full
// structured request and returns a 65 byte [R || S || V] signature with V in
// {27, 28}.
package walletSigner

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// IWalletSigner signs typed data on behalf of an account. Implementations
// return an error wrapping types.ErrUserRejected when the signer declined.
type IWalletSigner interface {
	// SignTypedData signs the structured request with the key of account.
	SignTypedData(ctx context.Context, account common.Address, request *types.SigningRequest) ([]byte, error)

	// Address returns the signing key's address.
	Address() common.Address
}

func checkAccount(signer IWalletSigner, account common.Address) error {
	if signer.Address() != account {
		return fmt.Errorf("signer %s cannot sign for account %s", signer.Address().Hex(), account.Hex())
	}
	return nil
}
