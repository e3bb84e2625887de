package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xrp-transfer/backend/internal/chain"
	"go.uber.org/zap"
)

type Config struct {
	// Network
	NetworkRPCURL      string
	NetworkChainID     uint64
	NetworkName        string
	NetworkExplorerURL string
	CurrencyName       string
	CurrencySymbol     string
	CurrencyDecimals   int

	// Contract
	TransferContractAddress string

	// Wallet. WalletRPCURL wins over WalletPrivateKey. Neither means no wallet.
	WalletRPCURL        string
	WalletPrivateKey    string
	ReceiptPollInterval time.Duration

	// Infra. Empty means disabled.
	PostgresDSN string
	RedisURL    string

	// Auth. An empty APIJWTSecret disables API auth.
	APIJWTSecret  string
	JWTExpiration time.Duration

	// Server
	APIPort            string
	RateLimitPerMinute int
	CORSAllowOrigins   []string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		NetworkRPCURL:      getEnv("NETWORK_RPC_URL", chain.Porcini.RPCURL),
		NetworkChainID:     getEnvChainID("NETWORK_CHAIN_ID", chain.Porcini.ChainID),
		NetworkName:        getEnv("NETWORK_NAME", chain.Porcini.Name),
		NetworkExplorerURL: getEnv("NETWORK_EXPLORER_URL", chain.Porcini.ExplorerURL),
		CurrencyName:       getEnv("NATIVE_CURRENCY_NAME", chain.Porcini.Currency.Name),
		CurrencySymbol:     getEnv("NATIVE_CURRENCY_SYMBOL", chain.Porcini.Currency.Symbol),
		CurrencyDecimals:   getEnvInt("NATIVE_CURRENCY_DECIMALS", chain.Porcini.Currency.Decimals),

		TransferContractAddress: getEnv("TRANSFER_CONTRACT_ADDRESS", chain.DefaultTransferContract),

		WalletRPCURL:        getEnv("WALLET_RPC_URL", ""),
		WalletPrivateKey:    strings.TrimPrefix(getEnv("WALLET_PRIVATE_KEY", ""), "0x"),
		ReceiptPollInterval: time.Duration(getEnvInt("RECEIPT_POLL_INTERVAL_MS", 2000)) * time.Millisecond,

		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		APIJWTSecret:  getEnv("API_JWT_SECRET", ""),
		JWTExpiration: time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,

		APIPort:            getEnv("API_PORT", "3000"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowOrigins:   parseList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}
}

// Network builds the chain descriptor from the configured values.
func (c *Config) Network() chain.Network {
	return chain.Network{
		ChainID:     c.NetworkChainID,
		Name:        c.NetworkName,
		RPCURL:      c.NetworkRPCURL,
		ExplorerURL: c.NetworkExplorerURL,
		Currency: chain.Currency{
			Name:     c.CurrencyName,
			Symbol:   c.CurrencySymbol,
			Decimals: c.CurrencyDecimals,
		},
	}
}

func (c *Config) TransferContract() (*chain.Contract, error) {
	contract, err := chain.NewTransferContract(c.TransferContractAddress)
	if err != nil {
		return nil, fmt.Errorf("TRANSFER_CONTRACT_ADDRESS: %w", err)
	}
	return contract, nil
}

func (c *Config) AuthEnabled() bool {
	return c.APIJWTSecret != ""
}

func (c *Config) Validate(log *zap.Logger) {
	if c.WalletRPCURL == "" && c.WalletPrivateKey == "" {
		log.Warn("no wallet configured, connect will report wallet not found")
	}
	if c.WalletRPCURL != "" && c.WalletPrivateKey != "" {
		log.Warn("both WALLET_RPC_URL and WALLET_PRIVATE_KEY are set, using WALLET_RPC_URL")
	}
	if c.CurrencyDecimals < 0 || c.CurrencyDecimals > 36 {
		log.Warn("NATIVE_CURRENCY_DECIMALS out of range, using 18", zap.Int("decimals", c.CurrencyDecimals))
		c.CurrencyDecimals = 18
	}
	if c.NetworkChainID == 0 {
		log.Warn("NETWORK_CHAIN_ID is zero or invalid, using Porcini",
			zap.String("value", os.Getenv("NETWORK_CHAIN_ID")),
			zap.Uint64("chain_id", chain.Porcini.ChainID),
		)
		c.NetworkChainID = chain.Porcini.ChainID
	}
	if !c.AuthEnabled() {
		log.Warn("API_JWT_SECRET is not set, API is unauthenticated")
	}
	if c.RedisURL == "" {
		log.Info("REDIS_URL is not set, using in-memory events and no rate limit")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// getEnvChainID accepts decimal ("7672") or 0x-prefixed hex ("0x1df8").
// An unparsable value yields 0, which Validate reports and replaces.
func getEnvChainID(key string, fallback uint64) uint64 {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseUint(strings.ToLower(s), 0, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
