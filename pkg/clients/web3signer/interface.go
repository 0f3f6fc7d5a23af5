package web3signer

import (
	"context"
	"net/http"
)

// IWeb3Signer defines the interface for interacting with Web3Signer services.
// It abstracts the client so wallet signers can be tested against fakes.
type IWeb3Signer interface {
	// SetHttpClient allows setting a custom HTTP client for the Web3Signer client.
	SetHttpClient(client *http.Client)

	// EthAccounts returns a list of accounts available for signing.
	// This corresponds to the eth_accounts JSON-RPC method.
	EthAccounts(ctx context.Context) ([]string, error)

	// EthSignTypedData signs EIP-712 typed data with the specified account.
	// This corresponds to the eth_signTypedData JSON-RPC method.
	EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error)

	// Upcheck reports whether the service is reachable.
	Upcheck(ctx context.Context) error
}

var _ IWeb3Signer = (*Client)(nil)
