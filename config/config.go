package config

import "os"

// Token describes one payable ERC-20 token
type Token struct {
	Symbol   string
	Address  string
	Decimals int32
}

// Config centralizes environment variables and runtime parameters
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string

	HTTPPort string

	RedisURL         string
	BridgeBaseURL    string // external session API
	CatalogBaseURL   string // events catalog API
	DirectoryBaseURL string // host-app usernames API
	RPCURL           string // chain RPC for balance queries

	NonceSecret    string
	SessionKeyHex  string // ECDSA key for session JWTs; empty generates one
	HostChainID    int64
	HostDomain     string

	PoolAddress      string
	OffRampWallet    string
	FallbackUsername string
	PayToken         string
	MaxStake         string

	Tokens map[string]Token
}

// Load reads environment variables and applies defaults
func Load() Config {
	cfg := Config{
		Env:         getEnv("ENV", "local"),
		ServiceName: getEnv("SERVICE_NAME", "spots"),

		HTTPPort: getEnv("HTTP_PORT", "8080"),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		BridgeBaseURL:    getEnv("BRIDGE_API_URL", "http://localhost:5000"),
		CatalogBaseURL:   getEnv("CATALOG_API_URL", "http://localhost:5000"),
		DirectoryBaseURL: getEnv("DIRECTORY_API_URL", "https://usernames.worldcoin.org"),
		RPCURL:           getEnv("RPC_URL", "https://worldchain-mainnet.g.alchemy.com/public"),

		NonceSecret:   getEnv("HMAC_SECRET_KEY", "dev-only-secret"),
		SessionKeyHex: getEnv("SESSION_SIGNING_KEY", ""),
		HostChainID:   480, // World Chain
		HostDomain:    getEnv("HOST_DOMAIN", "spots.padimaster.dev"),

		PoolAddress:      getEnv("POOL_ADDRESS", "0x163142D00354B52F8f4F0431069AbE3119E1BC4a"),
		OffRampWallet:    getEnv("OFF_RAMP_WALLET", "0x1fb249bfa4ffB9fa98529692889d38359a57294D"),
		FallbackUsername: getEnv("FALLBACK_USERNAME", "padimaster"),
		PayToken:         getEnv("PAY_TOKEN", "USDC"),
		MaxStake:         getEnv("MAX_STAKE", "10000"),
	}

	cfg.Tokens = map[string]Token{
		"USDC": {
			Symbol:   "USDCE",
			Address:  getEnv("USDC_ADDRESS", "0x79A02482A880bCE3F13e09Da970dC34db4CD24d1"),
			Decimals: 6,
		},
		"WLD": {
			Symbol:   "WLD",
			Address:  getEnv("WLD_ADDRESS", "0x2cFc85d8E48F8EAB294be644d9E25C3030863003"),
			Decimals: 18,
		},
	}

	return cfg
}

// getEnv returns the environment variable value or the default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
