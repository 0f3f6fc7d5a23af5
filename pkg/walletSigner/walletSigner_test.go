package walletSigner

import (
	"context"
	"encoding/asn1"
	"errors"
	"math/big"
	"testing"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/clients/web3signer"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testRequest() *types.SigningRequest {
	return &types.SigningRequest{
		Domain:      types.Domain{Name: "X", Version: "1", ChainId: big.NewInt(42220)},
		PrimaryType: "Message",
		Types: map[string][]types.TypedField{
			"Message": {
				{Name: "content", Type: "string"},
				{Name: "timestamp", Type: "uint256"},
			},
		},
		Message: map[string]interface{}{
			"content":   "approve",
			"timestamp": float64(1700000000),
		},
	}
}

func recoverSigner(t *testing.T, hash types.MessageHash, sig []byte) common.Address {
	t.Helper()
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])
	normalized := append([]byte(nil), sig...)
	normalized[64] -= 27
	pub, err := crypto.SigToPub(hash.Bytes(), normalized)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub)
}

func Test_LocalSigner(t *testing.T) {
	signer, err := NewLocalSignerFromHex(testPrivateKey, zaptest.NewLogger(t))
	require.NoError(t, err)

	t.Run("Signature recovers to the signer", func(t *testing.T) {
		sig, err := signer.SignTypedData(context.Background(), signer.Address(), testRequest())
		require.NoError(t, err)

		hash, err := typedData.Hash(testRequest())
		require.NoError(t, err)
		assert.Equal(t, signer.Address(), recoverSigner(t, hash, sig))
	})

	t.Run("Wrong account", func(t *testing.T) {
		_, err := signer.SignTypedData(context.Background(), common.HexToAddress("0x01"), testRequest())
		require.Error(t, err)
	})

	t.Run("Malformed request", func(t *testing.T) {
		req := testRequest()
		req.PrimaryType = "Missing"
		_, err := signer.SignTypedData(context.Background(), signer.Address(), req)
		assert.True(t, errors.Is(err, types.ErrEncoding))
	})

	t.Run("Bad key", func(t *testing.T) {
		_, err := NewLocalSignerFromHex("0xzz", zaptest.NewLogger(t))
		require.Error(t, err)
		_, err = NewLocalSignerFromHex("", zaptest.NewLogger(t))
		require.Error(t, err)
	})
}

type fakeWeb3Signer struct {
	web3signer.IWeb3Signer
	result    string
	err       error
	typedData interface{}
}

func (f *fakeWeb3Signer) EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error) {
	f.typedData = typedData
	return f.result, f.err
}

func Test_Web3WalletSigner(t *testing.T) {
	local, err := NewLocalSignerFromHex(testPrivateKey, zaptest.NewLogger(t))
	require.NoError(t, err)
	localSig, err := local.SignTypedData(context.Background(), local.Address(), testRequest())
	require.NoError(t, err)

	t.Run("Passes typed data and decodes the signature", func(t *testing.T) {
		raw := append([]byte(nil), localSig...)
		raw[64] -= 27
		fake := &fakeWeb3Signer{result: hexutil.Encode(raw)}
		signer := NewWeb3WalletSigner(fake, local.Address(), zaptest.NewLogger(t))

		sig, err := signer.SignTypedData(context.Background(), local.Address(), testRequest())
		require.NoError(t, err)
		assert.Equal(t, localSig, sig)

		td, ok := fake.typedData.(*apitypes.TypedData)
		require.True(t, ok)
		assert.Equal(t, "Message", td.PrimaryType)
		assert.Equal(t, "1700000000", td.Message["timestamp"])
	})

	t.Run("User rejection", func(t *testing.T) {
		fake := &fakeWeb3Signer{err: &web3signer.JsonRpcError{Code: 4001, Message: "User rejected the request"}}
		signer := NewWeb3WalletSigner(fake, local.Address(), zaptest.NewLogger(t))

		_, err := signer.SignTypedData(context.Background(), local.Address(), testRequest())
		assert.True(t, errors.Is(err, types.ErrUserRejected))
	})

	t.Run("Other failure", func(t *testing.T) {
		fake := &fakeWeb3Signer{err: &web3signer.JsonRpcError{Code: -32000, Message: "key not found"}}
		signer := NewWeb3WalletSigner(fake, local.Address(), zaptest.NewLogger(t))

		_, err := signer.SignTypedData(context.Background(), local.Address(), testRequest())
		require.Error(t, err)
		assert.False(t, errors.Is(err, types.ErrUserRejected))
	})

	t.Run("Malformed signature", func(t *testing.T) {
		fake := &fakeWeb3Signer{result: "0x1234"}
		signer := NewWeb3WalletSigner(fake, local.Address(), zaptest.NewLogger(t))

		_, err := signer.SignTypedData(context.Background(), local.Address(), testRequest())
		require.Error(t, err)
	})
}

type fakeKMS struct {
	t       *testing.T
	highS   bool
	signErr error
	// publicKeyErrs are returned by the first GetPublicKey calls, in order
	publicKeyErrs  []error
	publicKeyCalls int
}

var (
	oidEcPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

func (f *fakeKMS) GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	f.publicKeyCalls++
	if len(f.publicKeyErrs) > 0 {
		err := f.publicKeyErrs[0]
		f.publicKeyErrs = f.publicKeyErrs[1:]
		return nil, err
	}
	key, err := crypto.HexToECDSA(testPrivateKey[2:])
	require.NoError(f.t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	der, err := asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{Algorithm: oidEcPublicKey, Parameters: oidSecp256k1},
		PublicKey:       asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	require.NoError(f.t, err)
	return &kms.GetPublicKeyOutput{PublicKey: der}, nil
}

func (f *fakeKMS) Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	key, err := crypto.HexToECDSA(testPrivateKey[2:])
	require.NoError(f.t, err)
	sig, err := crypto.Sign(params.Message, key)
	require.NoError(f.t, err)

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if f.highS {
		s = new(big.Int).Sub(secp256k1N, s)
	}
	der, err := asn1.Marshal(struct{ R, S *big.Int }{r, s})
	require.NoError(f.t, err)
	return &kms.SignOutput{Signature: der}, nil
}

func Test_AWSKMSSigner(t *testing.T) {
	local, err := NewLocalSignerFromHex(testPrivateKey, zaptest.NewLogger(t))
	require.NoError(t, err)
	hash, err := typedData.Hash(testRequest())
	require.NoError(t, err)

	for _, highS := range []bool{false, true} {
		signer := NewAWSKMSSignerWithClient(&fakeKMS{t: t, highS: highS}, "key-1", zaptest.NewLogger(t))
		require.NoError(t, signer.LoadPublicKey(context.Background()))
		assert.Equal(t, local.Address(), signer.Address())

		sig, err := signer.SignTypedData(context.Background(), local.Address(), testRequest())
		require.NoError(t, err)
		assert.Equal(t, local.Address(), recoverSigner(t, hash, sig))

		s := new(big.Int).SetBytes(sig[32:64])
		assert.True(t, s.Cmp(new(big.Int).Rsh(secp256k1N, 1)) <= 0, "signature must be low-S")
	}

	t.Run("Public key load is retried after a failure", func(t *testing.T) {
		fake := &fakeKMS{t: t, publicKeyErrs: []error{errors.New("throttled")}}
		signer := NewAWSKMSSignerWithClient(fake, "key-1", zaptest.NewLogger(t))

		err := signer.LoadPublicKey(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "throttled")
		assert.Equal(t, common.Address{}, signer.Address())

		require.NoError(t, signer.LoadPublicKey(context.Background()))
		assert.Equal(t, local.Address(), signer.Address())

		sig, err := signer.SignTypedData(context.Background(), local.Address(), testRequest())
		require.NoError(t, err)
		assert.Equal(t, local.Address(), recoverSigner(t, hash, sig))

		// a loaded key is not fetched again
		assert.Equal(t, 2, fake.publicKeyCalls)
	})

	t.Run("Sign failure", func(t *testing.T) {
		signer := NewAWSKMSSignerWithClient(&fakeKMS{t: t, signErr: errors.New("denied")}, "key-1", zaptest.NewLogger(t))
		_, err := signer.SignTypedData(context.Background(), local.Address(), testRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key-1")
	})
}

func Test_NewWalletSigner(t *testing.T) {
	logger := zaptest.NewLogger(t)

	signer, err := NewWalletSigner(context.Background(), &config.WalletConfig{
		Type:       config.WalletType_Local,
		PrivateKey: testPrivateKey,
	}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LocalSigner{}, signer)

	signer, err = NewWalletSigner(context.Background(), &config.WalletConfig{
		Type: config.WalletType_Web3Signer,
		Remote: &config.RemoteSignerConfig{
			Url:         "http://localhost:9000",
			FromAddress: "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		},
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"), signer.Address())

	_, err = NewWalletSigner(context.Background(), &config.WalletConfig{Type: "ledger"}, logger)
	require.Error(t, err)
	_, err = NewWalletSigner(context.Background(), nil, logger)
	require.Error(t, err)
}
