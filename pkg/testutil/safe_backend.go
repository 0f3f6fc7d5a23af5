package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/middleware-bindings/ISafe"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrExecutionReverted is returned by MockSafeBackend for calls configured to revert.
var ErrExecutionReverted = errors.New("execution reverted")

// MockSafeBackend implements bind.ContractCaller and answers ISafe calls for
// a single Safe deployment. Zero values describe a 1.3.0 Safe with threshold 1.
type MockSafeBackend struct {
	mu sync.Mutex

	Version   string
	Threshold *big.Int
	Owners    []common.Address
	ChainId   *big.Int

	// IsValidSignature results, keyed by signature hex
	ValidSignatures map[string][4]byte

	// Methods listed here revert; keys are ABI method names
	// (isValidSignature0 is the bytes32 overload).
	Reverts map[string]bool

	// NoCode makes CodeAt report an empty account.
	NoCode bool

	calls map[string]int
	abi   *abi.ABI
}

func NewMockSafeBackend() *MockSafeBackend {
	parsed, err := ISafe.ISafeMetaData.GetAbi()
	if err != nil {
		panic(fmt.Sprintf("invalid ISafe ABI: %v", err))
	}
	return &MockSafeBackend{
		Version:         "1.3.0",
		Threshold:       big.NewInt(1),
		ChainId:         big.NewInt(42220),
		ValidSignatures: make(map[string][4]byte),
		Reverts:         make(map[string]bool),
		calls:           make(map[string]int),
		abi:             parsed,
	}
}

// Calls returns how often method was called.
func (m *MockSafeBackend) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockSafeBackend) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NoCode {
		return nil, nil
	}
	return []byte{0x60, 0x80}, nil
}

func (m *MockSafeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(call.Data) < 4 {
		return nil, ErrExecutionReverted
	}
	method, err := m.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, ErrExecutionReverted
	}
	m.calls[method.Name]++
	if m.Reverts[method.Name] {
		return nil, ErrExecutionReverted
	}

	switch method.Name {
	case "VERSION":
		return method.Outputs.Pack(m.Version)
	case "getThreshold":
		return method.Outputs.Pack(m.Threshold)
	case "getOwners":
		return method.Outputs.Pack(m.Owners)
	case "getChainId":
		return method.Outputs.Pack(m.ChainId)
	case "nonce":
		return method.Outputs.Pack(big.NewInt(0))
	case "isValidSignature", "isValidSignature0":
		args, err := method.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		signature, _ := args[1].([]byte)
		result := m.ValidSignatures[common.Bytes2Hex(signature)]
		return method.Outputs.Pack(result)
	}
	return nil, ErrExecutionReverted
}

// SetSignatureResult configures the isValidSignature return value for signature.
func (m *MockSafeBackend) SetSignatureResult(signature []byte, result [4]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidSignatures[common.Bytes2Hex(signature)] = result
}

// SetRevert makes method revert (or stop reverting).
func (m *MockSafeBackend) SetRevert(method string, revert bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reverts[method] = revert
}
