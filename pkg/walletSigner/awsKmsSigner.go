package walletSigner

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"
	"sync"

	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmsTypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// IKMSClient is the subset of the KMS API used for signing.
type IKMSClient interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

var secp256k1N, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// AWSKMSSigner signs with an ECC_SECG_P256K1 key held in AWS KMS.
type AWSKMSSigner struct {
	kmsClient IKMSClient
	keyId     string
	logger    *zap.Logger

	mu        sync.Mutex
	loaded    bool
	publicKey *cryptoEcdsa.PublicKey
	address   common.Address
}

func NewAWSKMSSigner(awsCfg aws.Config, keyId string, logger *zap.Logger) *AWSKMSSigner {
	return NewAWSKMSSignerWithClient(kms.NewFromConfig(awsCfg), keyId, logger)
}

func NewAWSKMSSignerWithClient(client IKMSClient, keyId string, logger *zap.Logger) *AWSKMSSigner {
	return &AWSKMSSigner{
		kmsClient: client,
		keyId:     keyId,
		logger:    logger,
	}
}

// LoadPublicKey fetches the key's public key and derives its address. The
// key is cached once loaded; failed loads are retried on the next call.
func (a *AWSKMSSigner) LoadPublicKey(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return nil
	}

	out, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(a.keyId)})
	if err != nil {
		return errors.Wrapf(err, "failed to get public key for key %s", a.keyId)
	}
	pub, err := parseECDSAPublicKey(out.PublicKey)
	if err != nil {
		return errors.Wrapf(err, "failed to parse public key for key %s", a.keyId)
	}
	pk := &ecdsa.PublicKey{X: pub.X, Y: pub.Y}
	addr, err := pk.DeriveAddress()
	if err != nil {
		return errors.Wrapf(err, "failed to derive address for key %s", a.keyId)
	}
	a.publicKey = pub
	a.address = addr
	a.loaded = true
	return nil
}

// Address is the zero address until LoadPublicKey succeeds.
func (a *AWSKMSSigner) Address() common.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.address
}

func (a *AWSKMSSigner) SignTypedData(ctx context.Context, account common.Address, request *types.SigningRequest) ([]byte, error) {
	if err := a.LoadPublicKey(ctx); err != nil {
		return nil, err
	}
	if err := checkAccount(a, account); err != nil {
		return nil, err
	}
	hash, err := typedData.Hash(request)
	if err != nil {
		return nil, err
	}
	return a.signDigest(ctx, hash.Bytes())
}

// parseECDSAPublicKey parses the DER-encoded public key from KMS
func parseECDSAPublicKey(derBytes []byte) (*cryptoEcdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	if _, err := asn1.Unmarshal(derBytes, &asn1pubk); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

func (a *AWSKMSSigner) signDigest(ctx context.Context, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("hash must be exactly 32 bytes, got %d", len(digest))
	}

	signOutput, err := a.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(a.keyId),
		Message:          digest,
		SigningAlgorithm: kmsTypes.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      kmsTypes.MessageTypeDigest,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign with key %s", a.keyId)
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(signOutput.Signature, &sigAsn1); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 signature: %w", err)
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)

	// low-S form
	halfOrder := new(big.Int).Rsh(secp256k1N, 1)
	if s.Cmp(halfOrder) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	signature := make([]byte, 65)
	r.FillBytes(signature[0:32])
	s.FillBytes(signature[32:64])

	for recoveryId := byte(0); recoveryId < 2; recoveryId++ {
		signature[64] = recoveryId
		recovered, err := crypto.SigToPub(digest, signature)
		if err != nil {
			a.logger.Debug("Ecrecover failed",
				zap.Uint8("recoveryId", recoveryId),
				zap.Error(err))
			continue
		}
		if recovered.X.Cmp(a.publicKey.X) == 0 && recovered.Y.Cmp(a.publicKey.Y) == 0 {
			signature[64] = 27 + recoveryId
			return signature, nil
		}
	}
	return nil, fmt.Errorf("could not determine valid recovery ID - signature recovery failed")
}
