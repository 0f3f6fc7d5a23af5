// Package typedData computes EIP-712 digests for structured signing requests.
//
// The domain type is always derived from the domain fields that are present,
// in the canonical order name, version, chainId, verifyingContract, salt. A
// caller supplied EIP712Domain entry in the request types is ignored so the
// domain separator cannot disagree with the domain values.
package typedData

import (
	"fmt"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// DomainFields returns the EIP712Domain type for the fields present in domain.
func DomainFields(domain types.Domain) []types.TypedField {
	fields := make([]types.TypedField, 0, 5)
	if domain.Name != "" {
		fields = append(fields, types.TypedField{Name: "name", Type: "string"})
	}
	if domain.Version != "" {
		fields = append(fields, types.TypedField{Name: "version", Type: "string"})
	}
	if domain.ChainId != nil {
		fields = append(fields, types.TypedField{Name: "chainId", Type: "uint256"})
	}
	if domain.VerifyingContract != nil {
		fields = append(fields, types.TypedField{Name: "verifyingContract", Type: "address"})
	}
	if domain.Salt != nil {
		fields = append(fields, types.TypedField{Name: "salt", Type: "bytes32"})
	}
	return fields
}

func toApiDomain(domain types.Domain) apitypes.TypedDataDomain {
	d := apitypes.TypedDataDomain{
		Name:    domain.Name,
		Version: domain.Version,
	}
	if domain.ChainId != nil {
		d.ChainId = (*math.HexOrDecimal256)(domain.ChainId)
	}
	if domain.VerifyingContract != nil {
		d.VerifyingContract = domain.VerifyingContract.Hex()
	}
	if domain.Salt != nil {
		d.Salt = domain.Salt.Hex()
	}
	return d
}

func toApiFields(fields []types.TypedField) []apitypes.Type {
	out := make([]apitypes.Type, len(fields))
	for i, f := range fields {
		out[i] = apitypes.Type{Name: f.Name, Type: f.Type}
	}
	return out
}

// BuildTypedData validates request and converts it into the go-ethereum
// representation with the message normalised for encoding.
func BuildTypedData(request *types.SigningRequest) (*apitypes.TypedData, error) {
	if request == nil {
		return nil, fmt.Errorf("%w: signing request is nil", types.ErrEncoding)
	}
	if request.PrimaryType == "" {
		return nil, fmt.Errorf("%w: primary type is required", types.ErrEncoding)
	}
	if request.PrimaryType == types.EIP712DomainType {
		return nil, fmt.Errorf("%w: primary type cannot be %s", types.ErrEncoding, types.EIP712DomainType)
	}
	domainFields := DomainFields(request.Domain)
	if len(domainFields) == 0 {
		return nil, fmt.Errorf("%w: domain has no fields", types.ErrEncoding)
	}

	typeDefs := make(map[string][]types.TypedField, len(request.Types)+1)
	for name, fields := range request.Types {
		if name == types.EIP712DomainType {
			continue
		}
		typeDefs[name] = fields
	}
	if err := validateTypes(typeDefs, request.PrimaryType); err != nil {
		return nil, err
	}

	message, err := normalizeStruct(typeDefs, request.PrimaryType, request.Message, "message")
	if err != nil {
		return nil, err
	}

	apiTypes := make(apitypes.Types, len(typeDefs)+1)
	for name, fields := range typeDefs {
		apiTypes[name] = toApiFields(fields)
	}
	apiTypes[types.EIP712DomainType] = toApiFields(domainFields)

	return &apitypes.TypedData{
		Types:       apiTypes,
		PrimaryType: request.PrimaryType,
		Domain:      toApiDomain(request.Domain),
		Message:     message,
	}, nil
}

// HashDomain returns the domain separator of request.
func HashDomain(request *types.SigningRequest) ([]byte, error) {
	td, err := BuildTypedData(request)
	if err != nil {
		return nil, err
	}
	return hashDomain(td)
}

// HashStruct returns the struct hash of the request message.
func HashStruct(request *types.SigningRequest) ([]byte, error) {
	td, err := BuildTypedData(request)
	if err != nil {
		return nil, err
	}
	return hashMessage(td)
}

func hashDomain(td *apitypes.TypedData) (hexutil.Bytes, error) {
	sep, err := td.HashStruct(types.EIP712DomainType, td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash domain: %v", types.ErrEncoding, err)
	}
	return sep, nil
}

func hashMessage(td *apitypes.TypedData) (hexutil.Bytes, error) {
	h, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash %s: %v", types.ErrEncoding, td.PrimaryType, err)
	}
	return h, nil
}

// Hash returns keccak256(0x19 ‖ 0x01 ‖ domainSeparator ‖ hashStruct(message)).
func Hash(request *types.SigningRequest) (types.MessageHash, error) {
	td, err := BuildTypedData(request)
	if err != nil {
		return types.MessageHash{}, err
	}
	domainSeparator, err := hashDomain(td)
	if err != nil {
		return types.MessageHash{}, err
	}
	structHash, err := hashMessage(td)
	if err != nil {
		return types.MessageHash{}, err
	}
	raw := make([]byte, 0, 2+len(domainSeparator)+len(structHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, structHash...)
	return types.MessageHash(crypto.Keccak256Hash(raw)), nil
}
