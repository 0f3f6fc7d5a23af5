package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "typed-signer",
		Usage: "EIP-712 typed data signer for EOA and Safe multisig accounts",
		Description: `Computes EIP-712 digests, signs them with the configured wallet and verifies signatures.

Externally owned accounts are signed directly. For Safe multisig accounts the wallet
key must be a Safe owner: it signs the Safe message, the message is proposed to the
Safe Transaction Service and the remaining confirmations are collected there until
the Safe threshold is met.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc-url",
				Aliases: []string{"rpc"},
				Usage:   "Ethereum RPC endpoint URL",
				Value:   "http://localhost:8545",
				EnvVars: []string{config.EnvSignerRpcUrl},
			},
			&cli.Uint64Flag{
				Name:    "chain-id",
				Aliases: []string{"chain"},
				Usage:   fmt.Sprintf("Chain ID: %s", config.GetSupportedChainIDsString()),
				Value:   uint64(config.ChainId_CeloMainnet),
				EnvVars: []string{config.EnvSignerChainID},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvSignerVerbose},
			},
			&cli.StringFlag{
				Name:    "persistence",
				Usage:   "Persistence backend: memory, badger or redis",
				Value:   string(config.PersistenceType_Memory),
				EnvVars: []string{config.EnvSignerPersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Badger data directory",
				EnvVars: []string{config.EnvSignerDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port)",
				EnvVars: []string{config.EnvSignerRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvSignerRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvSignerRedisDB},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "hash",
				Usage: "Compute the EIP-712 digest of a signing request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "request",
						Usage:    "Signing request JSON or path to a file containing it",
						Required: true,
					},
				},
				Action: hashCommand,
			},
			{
				Name:  "classify",
				Usage: "Report whether an account is externally owned or a contract multisig",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Account address",
						Required: true,
					},
				},
				Action: classifyCommand,
			},
			{
				Name:   "sign",
				Usage:  "Sign a request and wait for multisig collection to finish",
				Flags:  append(signerFlags(), &cli.StringFlag{Name: "request", Usage: "Signing request JSON or path to a file containing it", Required: true}),
				Action: signCommand,
			},
			{
				Name:  "verify",
				Usage: "Verify a signature over a message hash",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Account that supposedly signed",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "hash",
						Usage: "Message hash (hex); computed from --request when omitted",
					},
					&cli.StringFlag{
						Name:  "request",
						Usage: "Signing request JSON or path to a file containing it",
					},
					&cli.StringFlag{
						Name:     "signature",
						Usage:    "Signature (hex)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Account kind (eoa or multisig); classified on chain when omitted",
					},
				},
				Action: verifyCommand,
			},
			{
				Name:   "serve",
				Usage:  "Run the signing HTTP server",
				Flags:  append(signerFlags(), &cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port", Value: config.DefaultPort, EnvVars: []string{config.EnvSignerPort}}),
				Action: serveCommand,
			},
			{
				Name:   "sessions",
				Usage:  "List recorded signing sessions",
				Action: sessionsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// signerFlags are shared by the commands that sign.
func signerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "account",
			Aliases:  []string{"addr"},
			Usage:    "Account to sign for (EOA or Safe address)",
			EnvVars:  []string{config.EnvSignerAccountAddress},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "wallet",
			Usage:   "Wallet backend: local, web3signer or aws-kms",
			Value:   string(config.WalletType_Local),
			EnvVars: []string{config.EnvSignerWalletType},
		},
		&cli.StringFlag{
			Name:    "private-key",
			Usage:   "Private key (hex) for the local wallet",
			EnvVars: []string{config.EnvSignerPrivateKey},
		},
		&cli.StringFlag{
			Name:    "web3signer-url",
			Usage:   "Web3Signer base URL",
			EnvVars: []string{config.EnvSignerWeb3SignerUrl},
		},
		&cli.StringFlag{
			Name:    "web3signer-from",
			Usage:   "Address of the Web3Signer key",
			EnvVars: []string{config.EnvSignerWeb3SignerFrom},
		},
		&cli.StringFlag{
			Name:    "aws-kms-key-id",
			Usage:   "AWS KMS key id or ARN",
			EnvVars: []string{config.EnvSignerAWSKMSKeyId},
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region override",
			EnvVars: []string{config.EnvSignerAWSRegion},
		},
		&cli.StringFlag{
			Name:    "safe-service-url",
			Usage:   "Safe Transaction Service base URL",
			Value:   config.DefaultSafeServiceBaseUrl,
			EnvVars: []string{config.EnvSignerSafeServiceUrl},
		},
		&cli.StringFlag{
			Name:    "safe-api-key",
			Usage:   "Safe Transaction Service API key",
			EnvVars: []string{config.EnvSignerSafeApiKey},
		},
		&cli.Float64Flag{
			Name:    "safe-service-rate",
			Usage:   "Maximum Safe Transaction Service requests per second",
			Value:   config.DefaultServiceRatePerSec,
			EnvVars: []string{config.EnvSignerServiceRatePerSec},
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   "Delay between confirmation polls",
			Value:   config.DefaultPollInterval,
			EnvVars: []string{config.EnvSignerPollInterval},
		},
		&cli.IntFlag{
			Name:    "poll-max-attempts",
			Usage:   "Polls before collection times out",
			Value:   config.DefaultPollMaxAttempts,
			EnvVars: []string{config.EnvSignerPollMaxAttempts},
		},
	}
}

func parseSignerConfig(c *cli.Context) (*config.SignerConfig, error) {
	cfg := &config.SignerConfig{
		AccountAddress:    c.String("account"),
		ChainID:           config.ChainId(c.Uint64("chain-id")),
		RpcUrl:            c.String("rpc-url"),
		SafeServiceUrl:    c.String("safe-service-url"),
		SafeApiKey:        c.String("safe-api-key"),
		ServiceRatePerSec: c.Float64("safe-service-rate"),
		Polling: config.PollingConfig{
			Interval:    c.Duration("poll-interval"),
			MaxAttempts: c.Int("poll-max-attempts"),
		},
		Persistence: parsePersistenceConfig(c),
		Wallet: config.WalletConfig{
			Type:       config.WalletType(c.String("wallet")),
			PrivateKey: c.String("private-key"),
			AWSKeyId:   c.String("aws-kms-key-id"),
			AWSRegion:  c.String("aws-region"),
		},
		Port:    c.Int("port"),
		Debug:   c.Bool("verbose"),
		Verbose: c.Bool("verbose"),
	}
	if url := c.String("web3signer-url"); url != "" {
		cfg.Wallet.Remote = &config.RemoteSignerConfig{
			Url:         url,
			FromAddress: c.String("web3signer-from"),
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parsePersistenceConfig(c *cli.Context) config.PersistenceConfig {
	return config.PersistenceConfig{
		Type:          config.PersistenceType(c.String("persistence")),
		DataPath:      c.String("data-path"),
		RedisAddress:  c.String("redis-address"),
		RedisPassword: c.String("redis-password"),
		RedisDB:       c.Int("redis-db"),
	}
}
