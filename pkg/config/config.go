package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the signer configuration
const (
	EnvSignerRpcUrl            = "SIGNER_RPC_URL"
	EnvSignerChainID           = "SIGNER_CHAIN_ID"
	EnvSignerPort              = "SIGNER_PORT"
	EnvSignerVerbose           = "SIGNER_VERBOSE"
	EnvSignerSafeApiKey        = "SIGNER_SAFE_API_KEY"
	EnvSignerSafeServiceUrl    = "SIGNER_SAFE_SERVICE_URL"
	EnvSignerPollInterval      = "SIGNER_POLL_INTERVAL"
	EnvSignerPollMaxAttempts   = "SIGNER_POLL_MAX_ATTEMPTS"
	EnvSignerPersistenceType   = "SIGNER_PERSISTENCE_TYPE"
	EnvSignerDataPath          = "SIGNER_DATA_PATH"
	EnvSignerRedisAddress      = "SIGNER_REDIS_ADDRESS"
	EnvSignerRedisPassword     = "SIGNER_REDIS_PASSWORD"
	EnvSignerRedisDB           = "SIGNER_REDIS_DB"
	EnvSignerWalletType        = "SIGNER_WALLET_TYPE"
	EnvSignerPrivateKey        = "SIGNER_PRIVATE_KEY"
	EnvSignerWeb3SignerUrl     = "SIGNER_WEB3SIGNER_URL"
	EnvSignerWeb3SignerFrom    = "SIGNER_WEB3SIGNER_FROM"
	EnvSignerAWSKMSKeyId       = "SIGNER_AWS_KMS_KEY_ID"
	EnvSignerAWSRegion         = "SIGNER_AWS_REGION"
	EnvSignerAccountAddress    = "SIGNER_ACCOUNT_ADDRESS"
	EnvSignerServiceRatePerSec = "SIGNER_SERVICE_RATE_PER_SEC"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_CeloMainnet     ChainId = 42220
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_CeloMainnet     ChainName = "celo"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_CeloMainnet:     ChainName_CeloMainnet,
}

// ChainIdToSafeServiceName maps a chain to its Safe Transaction Service
// deployment. Only Celo is served by the reference deployment.
var ChainIdToSafeServiceName = map[ChainId]string{
	ChainId_CeloMainnet: "celo",
}

// GetSafeServiceNameForChain returns the service name used in the Safe
// Transaction Service URL for chainId.
func GetSafeServiceNameForChain(chainId ChainId) (string, error) {
	name, ok := ChainIdToSafeServiceName[chainId]
	if !ok {
		return "", fmt.Errorf("%w: no signature collection service for chain ID %d", types.ErrUnsupportedChain, chainId)
	}
	return name, nil
}

// GetSupportedChainIDsString returns supported chain IDs as strings for CLI help
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (celo)", ChainId_CeloMainnet)
}

const (
	DefaultSafeServiceBaseUrl = "https://api.safe.global"

	// Polling reference values: 60 attempts every 6 seconds, ~6 minutes.
	DefaultPollInterval    = 6 * time.Second
	DefaultPollMaxAttempts = 60

	// The Safe Transaction Service allows a handful of requests per second
	// per key. One session never comes close but verify/classify bursts can.
	DefaultServiceRatePerSec = 5.0

	DefaultPort = 8080
)

type PersistenceType string

const (
	PersistenceType_Memory PersistenceType = "memory"
	PersistenceType_Badger PersistenceType = "badger"
	PersistenceType_Redis  PersistenceType = "redis"
)

type WalletType string

const (
	WalletType_Local      WalletType = "local"
	WalletType_Web3Signer WalletType = "web3signer"
	WalletType_AWSKMS     WalletType = "aws-kms"
)

type PollingConfig struct {
	Interval    time.Duration `json:"interval" yaml:"interval"`
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
}

// DefaultPollingConfig returns the reference polling cadence.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultPollMaxAttempts,
	}
}

type PersistenceConfig struct {
	Type          PersistenceType `json:"type" yaml:"type"`
	DataPath      string          `json:"dataPath" yaml:"dataPath"`
	RedisAddress  string          `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword string          `json:"redisPassword" yaml:"redisPassword"`
	RedisDB       int             `json:"redisDb" yaml:"redisDb"`
}

type WalletConfig struct {
	Type       WalletType          `json:"type" yaml:"type"`
	PrivateKey string              `json:"privateKey" yaml:"privateKey"`
	AWSKeyId   string              `json:"awsKeyId" yaml:"awsKeyId"`
	AWSRegion  string              `json:"awsRegion" yaml:"awsRegion"`
	Remote     *RemoteSignerConfig `json:"remote,omitempty" yaml:"remote,omitempty"`
}

// SignerConfig represents the complete configuration of a signer process
type SignerConfig struct {
	// Account that signs requests
	AccountAddress string `json:"account_address"`

	// Chain configuration
	ChainID   ChainId   `json:"chain_id"`
	ChainName ChainName `json:"chain_name"`
	RpcUrl    string    `json:"rpc_url"`

	// Signature collection service
	SafeServiceUrl    string        `json:"safe_service_url"`
	SafeApiKey        string        `json:"safe_api_key"`
	ServiceRatePerSec float64       `json:"service_rate_per_sec"`
	Polling           PollingConfig `json:"polling"`

	Persistence PersistenceConfig `json:"persistence"`
	Wallet      WalletConfig      `json:"wallet"`

	Port    int  `json:"port"`
	Debug   bool `json:"debug"`
	Verbose bool `json:"verbose"`
}

// ApplyDefaults fills zero values with the reference defaults.
func (c *SignerConfig) ApplyDefaults() {
	if c.SafeServiceUrl == "" {
		c.SafeServiceUrl = DefaultSafeServiceBaseUrl
	}
	if c.ServiceRatePerSec == 0 {
		c.ServiceRatePerSec = DefaultServiceRatePerSec
	}
	if c.Polling.Interval == 0 {
		c.Polling.Interval = DefaultPollInterval
	}
	if c.Polling.MaxAttempts == 0 {
		c.Polling.MaxAttempts = DefaultPollMaxAttempts
	}
	if c.Persistence.Type == "" {
		c.Persistence.Type = PersistenceType_Memory
	}
	if c.Wallet.Type == "" {
		c.Wallet.Type = WalletType_Local
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
}

// Validate validates the signer configuration
func (c *SignerConfig) Validate() error {
	var allErrors field.ErrorList

	if c.AccountAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("accountAddress"), "account address is required"))
	} else if !common.IsHexAddress(c.AccountAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("accountAddress"), c.AccountAddress, "invalid address format"))
	}

	if c.RpcUrl == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("rpcUrl"), "rpc url is required"))
	}

	chainName, ok := ChainIdToName[c.ChainID]
	if !ok {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("chainId"), c.ChainID, []string{GetSupportedChainIDsString()}))
	} else {
		c.ChainName = chainName
	}

	if _, err := url.ParseRequestURI(c.SafeServiceUrl); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("safeServiceUrl"), c.SafeServiceUrl, err.Error()))
	}
	if err := ValidateSafeApiKey(c.SafeApiKey, time.Now()); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("safeApiKey"), "<redacted>", err.Error()))
	}
	if c.ServiceRatePerSec < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("serviceRatePerSec"), c.ServiceRatePerSec, "must not be negative"))
	}

	if c.Polling.Interval <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("polling", "interval"), c.Polling.Interval.String(), "must be positive"))
	}
	if c.Polling.MaxAttempts < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("polling", "maxAttempts"), c.Polling.MaxAttempts, "must be at least 1"))
	}

	allErrors = append(allErrors, c.Persistence.validate(field.NewPath("persistence"))...)
	allErrors = append(allErrors, c.Wallet.validate(field.NewPath("wallet"))...)

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be between 1-65535"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (pc *PersistenceConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch pc.Type {
	case PersistenceType_Memory:
	case PersistenceType_Badger:
		if pc.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "dataPath is required for badger persistence"))
		}
	case PersistenceType_Redis:
		if pc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for redis persistence"))
		}
		if pc.RedisDB < 0 || pc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDb"), pc.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), pc.Type, []string{
			string(PersistenceType_Memory), string(PersistenceType_Badger), string(PersistenceType_Redis),
		}))
	}
	return allErrors
}

func (wc *WalletConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch wc.Type {
	case WalletType_Local:
		if wc.PrivateKey == "" {
			allErrors = append(allErrors, field.Required(path.Child("privateKey"), "privateKey is required for a local wallet"))
		}
	case WalletType_Web3Signer:
		if wc.Remote == nil {
			allErrors = append(allErrors, field.Required(path.Child("remote"), "remote signer config is required for web3signer"))
		} else if err := wc.Remote.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(path.Child("remote"), wc.Remote.Url, err.Error()))
		}
	case WalletType_AWSKMS:
		if wc.AWSKeyId == "" {
			allErrors = append(allErrors, field.Required(path.Child("awsKeyId"), "awsKeyId is required for an aws-kms wallet"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), wc.Type, []string{
			string(WalletType_Local), string(WalletType_Web3Signer), string(WalletType_AWSKMS),
		}))
	}
	return allErrors
}

// ValidateSafeApiKey rejects bearer credentials that are JWTs past their
// expiry. Opaque keys and an empty key are accepted as-is.
func ValidateSafeApiKey(apiKey string, now time.Time) error {
	if apiKey == "" || strings.Count(apiKey, ".") != 2 {
		return nil
	}
	token, err := jwt.ParseInsecure([]byte(apiKey))
	if err != nil {
		return fmt.Errorf("failed to parse api key: %w", err)
	}
	if exp, ok := token.Expiration(); ok && !exp.IsZero() && exp.Before(now) {
		return fmt.Errorf("api key expired at %s", exp.UTC().Format(time.RFC3339))
	}
	return nil
}

type RemoteSignerConfig struct {
	Url         string `json:"url" yaml:"url"`
	CACert      string `json:"caCert" yaml:"caCert"`
	Cert        string `json:"cert" yaml:"cert"`
	Key         string `json:"key" yaml:"key"`
	FromAddress string `json:"fromAddress" yaml:"fromAddress"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.Url == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("url"), "url is required"))
	}
	if rsc.FromAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("fromAddress"), "fromAddress is required"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
