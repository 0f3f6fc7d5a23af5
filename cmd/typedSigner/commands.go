package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Layr-Labs/chain-indexer/pkg/clients/ethereum"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/accountClassifier"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/clients/safeTxService"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/logger"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/orchestrator"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence/badger"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence/redis"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/safe"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/server"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/thresholdCoordinator"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/typedData"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/verifier"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/walletSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// stack holds the components shared by sign and serve.
type stack struct {
	cfg          *config.SignerConfig
	store        persistence.ISignerPersistence
	safeCaller   *safe.SafeCaller
	classifier   *accountClassifier.AccountClassifier
	wallet       walletSigner.IWalletSigner
	orchestrator *orchestrator.Orchestrator
	verifier     *verifier.Verifier
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

func newStore(cfg config.PersistenceConfig, l *zap.Logger) (persistence.ISignerPersistence, error) {
	switch cfg.Type {
	case config.PersistenceType_Memory, "":
		return memory.NewMemoryPersistence(), nil
	case config.PersistenceType_Badger:
		store, err := badger.NewBadgerPersistence(cfg.DataPath, l)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.PersistenceType_Redis:
		store, err := redis.NewRedisPersistence(&redis.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported persistence type %q", cfg.Type)
}

func newEthClient(rpcUrl string, l *zap.Logger) (*ethclient.Client, error) {
	ethClient := ethereum.NewEthereumClient(&ethereum.EthereumClientConfig{
		BaseUrl:   rpcUrl,
		BlockType: ethereum.BlockType_Latest,
	}, l)

	client, err := ethClient.GetEthereumContractCaller()
	if err != nil {
		return nil, fmt.Errorf("failed to get Ethereum contract caller: %w", err)
	}
	return client, nil
}

func buildStack(ctx context.Context, c *cli.Context, l *zap.Logger, onEvent orchestrator.EventHandler) (*stack, error) {
	cfg, err := parseSignerConfig(c)
	if err != nil {
		return nil, err
	}
	l.Sugar().Infow("Using chain", "name", cfg.ChainName, "chain_id", cfg.ChainID)

	store, err := newStore(cfg.Persistence, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create persistence: %w", err)
	}

	client, err := newEthClient(cfg.RpcUrl, l)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	wallet, err := walletSigner.NewWalletSigner(ctx, &cfg.Wallet, l)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create wallet signer: %w", err)
	}

	serviceClient, err := safeTxService.NewClient(&safeTxService.ClientConfig{
		BaseUrl:        cfg.SafeServiceUrl,
		ApiKey:         cfg.SafeApiKey,
		RatePerSecond:  cfg.ServiceRatePerSec,
		RequestTimeout: cfg.Polling.Interval,
		Logger:         l,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create Safe Transaction Service client: %w", err)
	}

	safeCaller := safe.NewSafeCaller(client, l)
	classifier := accountClassifier.NewAccountClassifier(client, store, l)
	coordinator := thresholdCoordinator.NewThresholdCoordinator(safeCaller, serviceClient, cfg.Polling, l)

	o := orchestrator.NewOrchestrator(&orchestrator.OrchestratorConfig{
		ChainId:      cfg.ChainID,
		EventHandler: onEvent,
	}, classifier, wallet, coordinator, store, l)

	return &stack{
		cfg:          cfg,
		store:        store,
		safeCaller:   safeCaller,
		classifier:   classifier,
		wallet:       wallet,
		orchestrator: o,
		verifier:     verifier.NewVerifier(safeCaller, l),
	}, nil
}

func (s *stack) Close() {
	s.orchestrator.Close()
	_ = s.store.Close()
}

// readRequest accepts inline JSON or a path to a JSON file.
func readRequest(arg string) (*types.SigningRequest, error) {
	data := []byte(arg)
	if !strings.HasPrefix(strings.TrimSpace(arg), "{") {
		fileData, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read request file: %w", err)
		}
		data = fileData
	}
	return types.ParseSigningRequest(data)
}

func parseAccount(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid account address %q", s)
	}
	return common.HexToAddress(s), nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func hashCommand(c *cli.Context) error {
	request, err := readRequest(c.String("request"))
	if err != nil {
		return err
	}
	hash, err := typedData.Hash(request)
	if err != nil {
		return err
	}
	domainSeparator, err := typedData.HashDomain(request)
	if err != nil {
		return err
	}
	structHash, err := typedData.HashStruct(request)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"hash":            hash,
		"domainSeparator": hexutil.Bytes(domainSeparator),
		"structHash":      hexutil.Bytes(structHash),
	})
}

func classifyCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	account, err := parseAccount(c.String("account"))
	if err != nil {
		return err
	}
	client, err := newEthClient(c.String("rpc-url"), l)
	if err != nil {
		return err
	}

	classifier := accountClassifier.NewAccountClassifier(client, nil, l)
	kind := classifier.Classify(c.Context, account)
	result := map[string]interface{}{
		"account": account,
		"kind":    kind,
	}

	if kind == types.AccountKind_ContractMultisig {
		safeCaller := safe.NewSafeCaller(client, l)
		version, err := safeCaller.GetVersion(c.Context, account)
		if err != nil {
			return err
		}
		threshold, err := safeCaller.GetThreshold(c.Context, account)
		if err != nil {
			return err
		}
		owners, err := safeCaller.GetOwners(c.Context, account)
		if err != nil {
			return err
		}
		result["version"] = version
		result["threshold"] = threshold
		result["owners"] = owners
	}
	return printJSON(result)
}

func signCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	request, err := readRequest(c.String("request"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, c, l, func(event types.SessionEvent) {
		l.Sugar().Infow("Session event",
			"type", event.Type,
			"phase", event.Phase,
			"sessionId", event.SessionId,
		)
	})
	if err != nil {
		return err
	}
	defer s.Close()

	account := common.HexToAddress(s.cfg.AccountAddress)
	session, err := s.orchestrator.Submit(ctx, account, request)
	if err != nil {
		return err
	}
	if session.Phase == types.SessionPhase_Collecting {
		l.Sugar().Infow("Waiting for co-signer confirmations",
			"safe", account.Hex(),
			"poll_interval", s.cfg.Polling.Interval,
			"max_attempts", s.cfg.Polling.MaxAttempts,
		)
		session, err = s.orchestrator.Wait(ctx)
		if err != nil {
			return err
		}
	}
	if err := printJSON(session); err != nil {
		return err
	}
	if !session.Phase.IsFinal() {
		return fmt.Errorf("signing finished in phase %s: %s", session.Phase, session.LastError)
	}
	return nil
}

func verifyCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	account, err := parseAccount(c.String("account"))
	if err != nil {
		return err
	}
	signature, err := hexutil.Decode(c.String("signature"))
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	var hash types.MessageHash
	switch {
	case c.String("hash") != "":
		hash, err = types.HexToMessageHash(c.String("hash"))
	case c.String("request") != "":
		var request *types.SigningRequest
		request, err = readRequest(c.String("request"))
		if err == nil {
			hash, err = typedData.Hash(request)
		}
	default:
		err = fmt.Errorf("one of --hash or --request is required")
	}
	if err != nil {
		return err
	}

	client, err := newEthClient(c.String("rpc-url"), l)
	if err != nil {
		return err
	}

	var kind types.AccountKind
	if k := c.String("kind"); k != "" {
		kind, err = types.ParseAccountKind(k)
		if err != nil {
			return err
		}
	} else {
		kind = accountClassifier.NewAccountClassifier(client, nil, l).Classify(c.Context, account)
	}

	v := verifier.NewVerifier(safe.NewSafeCaller(client, l), l)
	result := v.Verify(c.Context, hash, signature, account, kind)
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Valid {
		return cli.Exit("signature is not valid", 1)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, c, l, func(event types.SessionEvent) {
		l.Sugar().Infow("Session event",
			"type", event.Type,
			"phase", event.Phase,
			"sessionId", event.SessionId,
		)
	})
	if err != nil {
		return err
	}
	defer s.Close()

	account := common.HexToAddress(s.cfg.AccountAddress)
	l.Sugar().Infow("Signer configuration",
		"account", account.Hex(),
		"kind", s.classifier.Classify(ctx, account),
		"wallet", s.cfg.Wallet.Type,
		"wallet_address", s.wallet.Address().Hex(),
		"chain_id", s.cfg.ChainID,
		"persistence", s.cfg.Persistence.Type,
	)

	srv := server.NewServer(&server.ServerConfig{
		Port:           s.cfg.Port,
		DefaultAccount: account,
	}, s.orchestrator, s.verifier, s.classifier, s.store, l)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	l.Sugar().Infow("Available endpoints",
		"submit", "POST /session",
		"session", "GET /session",
		"reset", "POST /session/reset",
		"verify", "POST /verify",
		"sessions", "GET /sessions")
	l.Sugar().Info("Press Ctrl+C to stop")

	<-ctx.Done()
	l.Sugar().Infow("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func sessionsCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	store, err := newStore(parsePersistenceConfig(c), l)
	if err != nil {
		return fmt.Errorf("failed to create persistence: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListSessionRecords()
	if err != nil {
		return err
	}
	return printJSON(records)
}
