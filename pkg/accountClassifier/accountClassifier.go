// Package accountClassifier decides whether an address is a plain keypair
// account or a contract multisig by looking for deployed code.
package accountClassifier

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// CodeReader is the slice of an ethereum client the classifier needs.
// *ethclient.Client satisfies it.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

type AccountClassifier struct {
	codeReader CodeReader
	store      persistence.ISignerPersistence
	logger     *zap.Logger
}

// NewAccountClassifier creates a classifier. A nil store keeps the cache in
// process memory.
func NewAccountClassifier(codeReader CodeReader, store persistence.ISignerPersistence, logger *zap.Logger) *AccountClassifier {
	if store == nil {
		store = memory.NewMemoryPersistence()
	}
	return &AccountClassifier{
		codeReader: codeReader,
		store:      store,
		logger:     logger,
	}
}

// Classify returns ContractMultisig when code is deployed at address.
//
// A failed lookup is logged and reported as ExternallyOwned; it is not
// cached so the next call retries. Successful results are cached for the
// lifetime of the store and never invalidated.
func (ac *AccountClassifier) Classify(ctx context.Context, address common.Address) types.AccountKind {
	cached, err := ac.store.LoadAccountClassification(address)
	if err != nil {
		ac.logger.Sugar().Warnw("Failed to read cached account classification",
			"address", address.Hex(),
			"error", err,
		)
	} else if cached != nil {
		return cached.Kind
	}

	kind, err := ac.lookup(ctx, address)
	if err != nil {
		ac.logger.Sugar().Errorw("Account classification failed, assuming externally owned account",
			"address", address.Hex(),
			"error", err,
		)
		return types.AccountKind_ExternallyOwned
	}

	err = ac.store.SaveAccountClassification(&persistence.AccountClassification{
		Address:      address.Hex(),
		Kind:         kind,
		ClassifiedAt: time.Now().Unix(),
	})
	if err != nil {
		ac.logger.Sugar().Warnw("Failed to cache account classification",
			"address", address.Hex(),
			"error", err,
		)
	}

	ac.logger.Sugar().Debugw("Classified account",
		"address", address.Hex(),
		"kind", kind.String(),
	)
	return kind
}

func (ac *AccountClassifier) lookup(ctx context.Context, address common.Address) (types.AccountKind, error) {
	code, err := ac.codeReader.CodeAt(ctx, address, nil)
	if err != nil {
		return types.AccountKind_ExternallyOwned, fmt.Errorf("%w: failed to get code for %s: %v", types.ErrClassification, address.Hex(), err)
	}
	if len(code) > 0 {
		return types.AccountKind_ContractMultisig, nil
	}
	return types.AccountKind_ExternallyOwned, nil
}
