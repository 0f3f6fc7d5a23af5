package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EIP712DomainType is the reserved type name of the domain struct.
const EIP712DomainType = "EIP712Domain"

// TypedField is a single member of an EIP-712 struct declaration.
type TypedField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Domain is the EIP-712 domain a message is bound to. Optional members are
// nil / empty when absent and are then left out of the domain separator.
type Domain struct {
	Name              string          `json:"name,omitempty"`
	Version           string          `json:"version,omitempty"`
	ChainId           *big.Int        `json:"chainId,omitempty"`
	VerifyingContract *common.Address `json:"verifyingContract,omitempty"`
	Salt              *common.Hash    `json:"salt,omitempty"`
}

// SigningRequest is the structured message a user is asked to authorize.
// It is treated as immutable once submitted.
type SigningRequest struct {
	Domain      Domain                  `json:"domain"`
	PrimaryType string                  `json:"primaryType"`
	Types       map[string][]TypedField `json:"types"`
	Message     map[string]interface{}  `json:"message"`
}

// Clone returns a deep copy of the request so callers can't mutate a
// request that is already owned by a session.
func (r *SigningRequest) Clone() *SigningRequest {
	if r == nil {
		return nil
	}
	out := &SigningRequest{
		Domain:      r.Domain.clone(),
		PrimaryType: r.PrimaryType,
		Types:       make(map[string][]TypedField, len(r.Types)),
	}
	for name, fields := range r.Types {
		out.Types[name] = append([]TypedField(nil), fields...)
	}
	out.Message = cloneValue(r.Message).(map[string]interface{})
	return out
}

func (d Domain) clone() Domain {
	out := Domain{Name: d.Name, Version: d.Version}
	if d.ChainId != nil {
		out.ChainId = new(big.Int).Set(d.ChainId)
	}
	if d.VerifyingContract != nil {
		addr := *d.VerifyingContract
		out.VerifyingContract = &addr
	}
	if d.Salt != nil {
		salt := *d.Salt
		out.Salt = &salt
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if val == nil {
			return map[string]interface{}{}
		}
		m := make(map[string]interface{}, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(val))
		for i, inner := range val {
			s[i] = cloneValue(inner)
		}
		return s
	case *big.Int:
		return new(big.Int).Set(val)
	case []byte:
		return append([]byte(nil), val...)
	default:
		return val
	}
}

// ParseSigningRequest decodes a JSON signing request. Numbers are kept as
// json.Number so integers wider than 2^53 survive decoding.
func ParseSigningRequest(data []byte) (*SigningRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var req SigningRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: failed to decode signing request: %v", ErrEncoding, err)
	}
	if req.Message == nil {
		req.Message = map[string]interface{}{}
	}
	return &req, nil
}

// MessageHash is a 32 byte EIP-712 digest.
type MessageHash [32]byte

// BytesToMessageHash converts b to a MessageHash. b must be exactly 32 bytes.
func BytesToMessageHash(b []byte) (MessageHash, error) {
	var h MessageHash
	if len(b) != len(h) {
		return h, fmt.Errorf("message hash must be 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HexToMessageHash parses a 0x-prefixed hex digest.
func HexToMessageHash(s string) (MessageHash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return MessageHash{}, fmt.Errorf("invalid message hash %q: %w", s, err)
	}
	return BytesToMessageHash(b)
}

func (h MessageHash) Bytes() []byte {
	return h[:]
}

func (h MessageHash) Hex() string {
	return hexutil.Encode(h[:])
}

func (h MessageHash) String() string {
	return h.Hex()
}

func (h MessageHash) IsZero() bool {
	return h == MessageHash{}
}

func (h MessageHash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *MessageHash) UnmarshalText(text []byte) error {
	parsed, err := HexToMessageHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// AccountKind is the closed set of account models a signer can have.
type AccountKind uint8

const (
	AccountKind_ExternallyOwned AccountKind = iota
	AccountKind_ContractMultisig
)

func (k AccountKind) String() string {
	switch k {
	case AccountKind_ExternallyOwned:
		return "externally-owned"
	case AccountKind_ContractMultisig:
		return "contract-multisig"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(s) {
	case "externally-owned", "eoa":
		return AccountKind_ExternallyOwned, nil
	case "contract-multisig", "multisig", "safe":
		return AccountKind_ContractMultisig, nil
	default:
		return 0, fmt.Errorf("unknown account kind: %s", s)
	}
}

func (k AccountKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *AccountKind) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// VerificationMethod names the protocol used to check a signature.
type VerificationMethod string

const (
	VerificationMethod_ECDSA         VerificationMethod = "ecdsa"
	VerificationMethod_ContractCheck VerificationMethod = "contract-check"
)

// VerificationResult is produced per verification call and is never stored
// on the session.
type VerificationResult struct {
	Valid  bool               `json:"valid"`
	Method VerificationMethod `json:"method"`
}

// SignatureCollectionStatus is the subset of a signature-collection service
// message the threshold coordinator consumes.
type SignatureCollectionStatus struct {
	Confirmations     int
	PreparedSignature []byte
}
