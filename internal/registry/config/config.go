package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/trigg3rX/triggerx-registry/pkg/env"
)

type Config struct {
	devMode bool

	// Registry API port
	registryAPIPort string

	// Registry identity
	ownerAddress    string
	registryAddress string
	chainID         uint64

	// Ethereum RPC, empty runs the simulated ledger
	ethRPCURL string

	// Simulated block producer schedule
	blockInterval string

	// Initial configuration applied at startup
	bootstrapConfigPath string

	// ScyllaDB mirror, disabled when the host is empty
	databaseHostAddress string
	databaseHostPort    string
	databaseKeyspace    string

	// Redis event stream, disabled when the URL is empty
	redisURL          string
	redisEventStream  string
	redisStreamMaxLen int

	// CORS
	corsAllowedOrigins []string

	// Metrics
	metricsUpdateInterval time.Duration

	// Shutdown
	shutdownTimeout time.Duration
}

var cfg Config

// blockIntervalParser accepts the same specs as the simulated block producer.
var blockIntervalParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Init loads the .env file, if present, and reads the registry configuration from
// the environment.
func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}
	return load()
}

func load() error {
	cfg = Config{
		devMode:               env.GetEnvBool("DEV_MODE", false),
		registryAPIPort:       env.GetEnvString("REGISTRY_API_PORT", "9010"),
		ownerAddress:          env.GetEnvString("REGISTRY_OWNER_ADDRESS", ""),
		registryAddress:       env.GetEnvString("REGISTRY_ADDRESS", ""),
		chainID:               env.GetEnvUint64("CHAIN_ID", 31337),
		ethRPCURL:             env.GetEnvString("ETH_RPC_URL", ""),
		blockInterval:         env.GetEnvString("BLOCK_INTERVAL", "@every 2s"),
		bootstrapConfigPath:   env.GetEnvString("BOOTSTRAP_CONFIG_PATH", ""),
		databaseHostAddress:   env.GetEnvString("DATABASE_HOST_ADDRESS", ""),
		databaseHostPort:      env.GetEnvString("DATABASE_HOST_PORT", "9042"),
		databaseKeyspace:      env.GetEnvString("DATABASE_KEYSPACE", "triggerx"),
		redisURL:              env.GetEnvString("REDIS_URL", ""),
		redisEventStream:      env.GetEnvString("REDIS_EVENT_STREAM", "registry:events"),
		redisStreamMaxLen:     env.GetEnvInt("REDIS_STREAM_MAX_LEN", 10000),
		corsAllowedOrigins:    env.GetEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		metricsUpdateInterval: env.GetEnvDuration("METRICS_UPDATE_INTERVAL", 15*time.Second),
		shutdownTimeout:       env.GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if err := validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}

func validateConfig() error {
	if !env.IsValidPort(cfg.registryAPIPort) {
		return fmt.Errorf("invalid Registry API Port: %s", cfg.registryAPIPort)
	}
	if !env.IsValidEthAddress(cfg.ownerAddress) {
		return fmt.Errorf("invalid registry owner address: %s", cfg.ownerAddress)
	}
	if !env.IsValidEthAddress(cfg.registryAddress) {
		return fmt.Errorf("invalid registry address: %s", cfg.registryAddress)
	}
	if cfg.chainID == 0 {
		return fmt.Errorf("invalid chain id: %d", cfg.chainID)
	}
	if !env.IsEmpty(cfg.ethRPCURL) && !env.IsValidRPCURL(cfg.ethRPCURL) {
		return fmt.Errorf("invalid Ethereum RPC URL: %s", cfg.ethRPCURL)
	}
	if env.IsEmpty(cfg.ethRPCURL) {
		if _, err := blockIntervalParser.Parse(cfg.blockInterval); err != nil {
			return fmt.Errorf("invalid block interval %q: %w", cfg.blockInterval, err)
		}
	}
	if !env.IsEmpty(cfg.databaseHostAddress) {
		if !env.IsValidPort(cfg.databaseHostPort) {
			return fmt.Errorf("invalid database host port: %s", cfg.databaseHostPort)
		}
		if env.IsEmpty(cfg.databaseKeyspace) {
			return fmt.Errorf("invalid database keyspace: %s", cfg.databaseKeyspace)
		}
	}
	if !env.IsEmpty(cfg.redisURL) && env.IsEmpty(cfg.redisEventStream) {
		return fmt.Errorf("invalid redis event stream: %s", cfg.redisEventStream)
	}
	return nil
}

func IsDevMode() bool {
	return cfg.devMode
}

func GetRegistryAPIPort() string {
	return cfg.registryAPIPort
}

func GetOwnerAddress() common.Address {
	return common.HexToAddress(cfg.ownerAddress)
}

func GetRegistryAddress() common.Address {
	return common.HexToAddress(cfg.registryAddress)
}

func GetChainID() *big.Int {
	return new(big.Int).SetUint64(cfg.chainID)
}

func GetEthRPCURL() string {
	return cfg.ethRPCURL
}

// IsSimulated reports whether the registry runs on the in process ledger.
func IsSimulated() bool {
	return cfg.ethRPCURL == ""
}

func GetBlockInterval() string {
	return cfg.blockInterval
}

func GetBootstrapConfigPath() string {
	return cfg.bootstrapConfigPath
}

func GetDatabaseHostAddress() string {
	return cfg.databaseHostAddress
}

func GetDatabaseHostPort() string {
	return cfg.databaseHostPort
}

func GetDatabaseKeyspace() string {
	return cfg.databaseKeyspace
}

func GetRedisURL() string {
	return cfg.redisURL
}

func GetRedisEventStream() string {
	return cfg.redisEventStream
}

func GetRedisStreamMaxLen() int {
	return cfg.redisStreamMaxLen
}

func GetCORSAllowedOrigins() []string {
	return cfg.corsAllowedOrigins
}

func GetMetricsUpdateInterval() time.Duration {
	return cfg.metricsUpdateInterval
}

func GetShutdownTimeout() time.Duration {
	return cfg.shutdownTimeout
}
