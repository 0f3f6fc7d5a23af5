package typedData

import (
	"math/big"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// WalletPayload returns the typed data in the JSON shape wallets expect for
// eth_signTypedData: bytes as 0x-hex and integers as decimal strings.
func WalletPayload(request *types.SigningRequest) (*apitypes.TypedData, error) {
	td, err := BuildTypedData(request)
	if err != nil {
		return nil, err
	}
	td.Message = walletValue(map[string]interface{}(td.Message)).(map[string]interface{})
	return td, nil
}

func walletValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = walletValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = walletValue(item)
		}
		return out
	case []byte:
		return hexutil.Encode(val)
	case *big.Int:
		return val.String()
	}
	return v
}
