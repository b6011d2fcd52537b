// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/sizing-bot/internal/asset"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Gas       GasConfig       `mapstructure:"gas"`
	Sizing    SizingConfig    `mapstructure:"sizing"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	// RequestsPerSecond caps eth_call traffic from the quote fan-out.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	RequestBurst      int     `mapstructure:"request_burst"`
}

// VenuesConfig holds the on-chain quoting contracts.
type VenuesConfig struct {
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	Sushiswap SushiswapConfig `mapstructure:"sushiswap"`
}

// UniswapConfig holds Uniswap V3 settings.
type UniswapConfig struct {
	QuoterAddress string `mapstructure:"quoter_address"`
	FeeTier       int    `mapstructure:"fee_tier"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *UniswapConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// SushiswapConfig holds SushiSwap V2 settings.
type SushiswapConfig struct {
	RouterAddress string `mapstructure:"router_address"`
}

// RouterAddressHex returns the router address as common.Address.
func (c *SushiswapConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// GasConfig holds the fee model used to price one flash-loan attempt.
type GasConfig struct {
	AssumedGas         uint64        `mapstructure:"assumed_gas"`
	FallbackMaxFeeGwei string        `mapstructure:"fallback_max_fee_gwei"`
	FallbackTipGwei    string        `mapstructure:"fallback_tip_gwei"`
	MaxFeeCapGwei      string        `mapstructure:"max_fee_cap_gwei"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
}

// FallbackMaxFeeWei converts the fallback max fee to wei.
func (c *GasConfig) FallbackMaxFeeWei() *big.Int {
	return mustGwei(c.FallbackMaxFeeGwei)
}

// FallbackTipWei converts the fallback tip to wei.
func (c *GasConfig) FallbackTipWei() *big.Int {
	return mustGwei(c.FallbackTipGwei)
}

// MaxFeeCapWei converts the fee cap to wei. Zero disables the cap.
func (c *GasConfig) MaxFeeCapWei() *big.Int {
	return mustGwei(c.MaxFeeCapGwei)
}

// SizingConfig holds the search parameters handed to the optimizer.
type SizingConfig struct {
	MinIn          string `mapstructure:"min_in"` // ether
	MaxIn          string `mapstructure:"max_in"` // ether
	MaxIterations  int    `mapstructure:"max_iterations"`
	SegmentDivisor int64  `mapstructure:"segment_divisor"`
	FinalPoints    int    `mapstructure:"final_points"`
	Concurrency    int    `mapstructure:"concurrency"`
	GridSamples    int    `mapstructure:"grid_samples"`
	CrossCheck     bool   `mapstructure:"cross_check"`
}

// MinInWei returns the lower size bound in wei.
func (c *SizingConfig) MinInWei() *big.Int {
	return mustEther(c.MinIn)
}

// MaxInWei returns the upper size bound in wei.
func (c *SizingConfig) MaxInWei() *big.Int {
	return mustEther(c.MaxIn)
}

// ArbitrageConfig holds route scanning configuration.
type ArbitrageConfig struct {
	Tokens            []string      `mapstructure:"tokens"`
	MinProfit         string        `mapstructure:"min_profit"` // ether
	FlashLoanContract string        `mapstructure:"flash_loan_contract"`
	FlashLoanFeeTier  int           `mapstructure:"flash_loan_fee_tier"`
	GasLimit          uint64        `mapstructure:"gas_limit"` // limit on the prepared flash-loan tx
	ScanTimeout       time.Duration `mapstructure:"scan_timeout"`
	TokenConcurrency  int           `mapstructure:"token_concurrency"`
	TUIMode           bool          `mapstructure:"-"` // Set at runtime, not from config file
	RunOnce           bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// MinProfitWei returns the profit threshold in wei.
func (c *ArbitrageConfig) MinProfitWei() *big.Int {
	return mustEther(c.MinProfit)
}

// MinProfitDecimal returns the profit threshold in ether.
func (c *ArbitrageConfig) MinProfitDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinProfit)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FlashLoanContractHex returns the receiver contract address.
func (c *ArbitrageConfig) FlashLoanContractHex() common.Address {
	return common.HexToAddress(c.FlashLoanContract)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the probe server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.websocket_url", "ARB_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ETH_HTTP_URL", "RPC_URL")
	v.BindEnv("ethereum.chain_id", "ARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Venues
	v.BindEnv("venues.uniswap.quoter_address", "ARB_UNISWAP_QUOTER", "UNISWAP_QUOTER")
	v.BindEnv("venues.sushiswap.router_address", "ARB_SUSHI_ROUTER", "SUSHI_ROUTER")

	// Sizing
	v.BindEnv("sizing.min_in", "ARB_SIZING_MIN_IN")
	v.BindEnv("sizing.max_in", "ARB_SIZING_MAX_IN")
	v.BindEnv("sizing.cross_check", "ARB_SIZING_CROSS_CHECK")

	// Arbitrage
	v.BindEnv("arbitrage.tokens", "ARB_TOKENS")
	v.BindEnv("arbitrage.min_profit", "ARB_MIN_PROFIT", "MIN_PROFIT_THRESHOLD")
	v.BindEnv("arbitrage.flash_loan_contract", "ARB_FLASH_LOAN_CONTRACT", "ARBITRAGE_CONTRACT_ADDRESS")
	v.BindEnv("arbitrage.gas_limit", "ARB_GAS_LIMIT", "GAS_LIMIT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "sizing-bot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.max_reconnects", 0) // infinite
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")
	v.SetDefault("ethereum.poll_interval", "12s")
	v.SetDefault("ethereum.requests_per_second", 25)
	v.SetDefault("ethereum.request_burst", 10)

	// Mainnet venues
	v.SetDefault("venues.uniswap.quoter_address", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	v.SetDefault("venues.uniswap.fee_tier", 3000) // 0.3%
	v.SetDefault("venues.sushiswap.router_address", "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F")

	// Gas defaults
	v.SetDefault("gas.assumed_gas", 450_000)
	v.SetDefault("gas.fallback_max_fee_gwei", "40")
	v.SetDefault("gas.fallback_tip_gwei", "2")
	v.SetDefault("gas.max_fee_cap_gwei", "500")
	v.SetDefault("gas.cache_ttl", "12s")

	// Sizing defaults
	v.SetDefault("sizing.min_in", "0.02")
	v.SetDefault("sizing.max_in", "10")
	v.SetDefault("sizing.max_iterations", 40)
	v.SetDefault("sizing.segment_divisor", 4096)
	v.SetDefault("sizing.final_points", 41)
	v.SetDefault("sizing.concurrency", 2)
	v.SetDefault("sizing.grid_samples", 25)
	v.SetDefault("sizing.cross_check", false)

	// Arbitrage defaults
	v.SetDefault("arbitrage.tokens", []string{
		"USDC", "USDT", "DAI", "UNI", "AAVE", "LINK", "CRV", "MATIC",
		"ARB", "COMP", "MKR", "PEPE", "SHIB", "AXS", "SAND", "SUSHI",
	})
	v.SetDefault("arbitrage.min_profit", "0.005")
	v.SetDefault("arbitrage.flash_loan_fee_tier", 3000)
	v.SetDefault("arbitrage.gas_limit", 550_000)
	v.SetDefault("arbitrage.scan_timeout", "30s")
	v.SetDefault("arbitrage.token_concurrency", 4)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "sizing-bot")
	v.SetDefault("telemetry.trace_provider", "CONSOLE_PROVIDER")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Venues.Uniswap.QuoterAddress) {
		return fmt.Errorf("invalid venues.uniswap.quoter_address: %s", c.Venues.Uniswap.QuoterAddress)
	}
	if !common.IsHexAddress(c.Venues.Sushiswap.RouterAddress) {
		return fmt.Errorf("invalid venues.sushiswap.router_address: %s", c.Venues.Sushiswap.RouterAddress)
	}
	if c.Arbitrage.FlashLoanContract != "" && !common.IsHexAddress(c.Arbitrage.FlashLoanContract) {
		return fmt.Errorf("invalid arbitrage.flash_loan_contract: %s", c.Arbitrage.FlashLoanContract)
	}
	if c.Arbitrage.FlashLoanFeeTier < 0 || c.Arbitrage.FlashLoanFeeTier >= 1<<24 {
		return fmt.Errorf("arbitrage.flash_loan_fee_tier must fit uint24: %d", c.Arbitrage.FlashLoanFeeTier)
	}
	if len(c.Arbitrage.Tokens) == 0 {
		return fmt.Errorf("arbitrage.tokens cannot be empty")
	}

	minIn, err := asset.ParseEther(c.Sizing.MinIn)
	if err != nil {
		return fmt.Errorf("invalid sizing.min_in: %w", err)
	}
	maxIn, err := asset.ParseEther(c.Sizing.MaxIn)
	if err != nil {
		return fmt.Errorf("invalid sizing.max_in: %w", err)
	}
	if maxIn.Cmp(minIn) <= 0 {
		return fmt.Errorf("sizing.max_in (%s) must exceed sizing.min_in (%s)", c.Sizing.MaxIn, c.Sizing.MinIn)
	}
	if c.Sizing.SegmentDivisor < 1 {
		return fmt.Errorf("sizing.segment_divisor must be >= 1")
	}
	if c.Sizing.FinalPoints < 2 {
		return fmt.Errorf("sizing.final_points must be >= 2")
	}
	if _, err := asset.ParseEther(c.Arbitrage.MinProfit); err != nil {
		return fmt.Errorf("invalid arbitrage.min_profit: %w", err)
	}

	for key, gwei := range map[string]string{
		"gas.fallback_max_fee_gwei": c.Gas.FallbackMaxFeeGwei,
		"gas.fallback_tip_gwei":     c.Gas.FallbackTipGwei,
		"gas.max_fee_cap_gwei":      c.Gas.MaxFeeCapGwei,
	} {
		if _, err := asset.ParseUnits(gwei, 9); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if c.Gas.AssumedGas == 0 {
		return fmt.Errorf("gas.assumed_gas must be positive")
	}
	return nil
}

// mustEther parses a value Validate already accepted.
func mustEther(s string) *big.Int {
	v, err := asset.ParseEther(s)
	if err != nil {
		return new(big.Int)
	}
	return v
}

func mustGwei(s string) *big.Int {
	v, err := asset.ParseUnits(s, 9)
	if err != nil {
		return new(big.Int)
	}
	return v
}
