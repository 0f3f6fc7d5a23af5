package main

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/clients/web3signer"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/logger"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/verifier"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/walletSigner"
	"github.com/ethereum/go-ethereum/common"
)

// Signs the same typed data with Web3Signer and with the raw private key of
// the key Web3Signer holds, and checks both recover to the same address.
func main() {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	ctx := context.Background()

	url := os.Getenv("WEB3SIGNER_URL")
	if url == "" {
		url = "http://localhost:9100"
	}
	privateKey := os.Getenv("PRIVATE_KEY")
	if privateKey == "" {
		l.Sugar().Fatal("PRIVATE_KEY environment variable is not set")
	}

	pkSigner, err := walletSigner.NewLocalSignerFromHex(privateKey, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create private key signer", "error", err)
	}
	address := pkSigner.Address()

	web3SignerClient, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(&config.RemoteSignerConfig{
		Url:         url,
		FromAddress: address.Hex(),
	}, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create Web3Signer client", "error", err)
	}
	web3WalletSigner := walletSigner.NewWeb3WalletSigner(web3SignerClient, address, l)

	contract := common.HexToAddress("0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC")
	request := &types.SigningRequest{
		Domain: types.Domain{
			Name:              "Hello Web3Signer",
			Version:           "1",
			ChainId:           big.NewInt(42220),
			VerifyingContract: &contract,
		},
		PrimaryType: "Greeting",
		Types: map[string][]types.TypedField{
			"Greeting": {
				{Name: "text", Type: "string"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		Message: map[string]interface{}{
			"text":  "Hello, Web3Signer!",
			"nonce": "1",
		},
	}

	hash, err := typedData.Hash(request)
	if err != nil {
		l.Sugar().Fatalw("failed to hash request", "error", err)
	}

	signatureWeb3, err := web3WalletSigner.SignTypedData(ctx, address, request)
	if err != nil {
		l.Sugar().Fatalw("failed to sign typed data with Web3Signer", "error", err)
	}
	signaturePK, err := pkSigner.SignTypedData(ctx, address, request)
	if err != nil {
		l.Sugar().Fatalw("failed to sign typed data with private key signer", "error", err)
	}

	recovered, err := verifier.RecoverAddress(hash, signatureWeb3)
	if err != nil {
		l.Sugar().Fatalw("failed to recover Web3Signer signature", "error", err)
	}

	fmt.Printf("Hash: %s\n", hash.Hex())
	fmt.Printf("Signature (Web3Signer):  %s\n", common.Bytes2Hex(signatureWeb3))
	fmt.Printf("Signature (Private Key): %s\n", common.Bytes2Hex(signaturePK))
	fmt.Printf("Recovered: %s (expected %s)\n", recovered.Hex(), address.Hex())

	if bytes.Equal(signatureWeb3, signaturePK) {
		fmt.Println("Signatures match!")
	} else {
		fmt.Println("Signatures do not match!")
	}
}
