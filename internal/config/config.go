package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultAlgodServer   = "https://testnet-api.algonode.cloud"
	DefaultIndexerServer = "https://testnet-idx.algonode.cloud"
	DefaultDappNote      = "property-dapp:uv2"
	DefaultMinRound      = 21540981
	DefaultIndexerRPS    = 5
	DefaultDiscovery     = 10
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env  string
	Port string

	AlgodServer   string
	AlgodToken    string
	IndexerServer string
	IndexerToken  string
	IndexerRPS    float64

	DappNote           string // note prefix every property creation carries
	MinRound           uint64 // first round searched for creations
	DiscoveryLimit     uint64
	DiscoveryPolicy    string // when-empty | always
	PruneStaleIDs      bool
	RefreshAfterAction bool
	WalletMnemonic     string

	RedisURL          string
	DatabaseURL       string
	IndexCacheBackend string // redis | sql

	HealthAdminKeyHash  string // bcrypt hash guarding /health/reset
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	LogLevel            string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ALGOD_SERVER", DefaultAlgodServer)
	viper.SetDefault("INDEXER_SERVER", DefaultIndexerServer)
	viper.SetDefault("INDEXER_RPS", DefaultIndexerRPS)
	viper.SetDefault("DAPP_NOTE", DefaultDappNote)
	viper.SetDefault("MIN_ROUND", DefaultMinRound)
	viper.SetDefault("DISCOVERY_LIMIT", DefaultDiscovery)
	viper.SetDefault("DISCOVERY_POLICY", "when-empty")
	viper.SetDefault("INDEX_CACHE_BACKEND", "redis")
	viper.SetDefault("LOG_LEVEL", "info")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	cfg := &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		AlgodServer:         viper.GetString("ALGOD_SERVER"),
		AlgodToken:          viper.GetString("ALGOD_TOKEN"),
		IndexerServer:       viper.GetString("INDEXER_SERVER"),
		IndexerToken:        viper.GetString("INDEXER_TOKEN"),
		IndexerRPS:          viper.GetFloat64("INDEXER_RPS"),
		DappNote:            viper.GetString("DAPP_NOTE"),
		MinRound:            viper.GetUint64("MIN_ROUND"),
		DiscoveryLimit:      viper.GetUint64("DISCOVERY_LIMIT"),
		DiscoveryPolicy:     strings.ToLower(strings.TrimSpace(viper.GetString("DISCOVERY_POLICY"))),
		PruneStaleIDs:       viper.GetBool("PRUNE_STALE_IDS"),
		RefreshAfterAction:  viper.GetBool("REFRESH_AFTER_ACTION"),
		WalletMnemonic:      strings.TrimSpace(viper.GetString("WALLET_MNEMONIC")),
		RedisURL:            viper.GetString("REDIS_URL"),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		IndexCacheBackend:   strings.ToLower(viper.GetString("INDEX_CACHE_BACKEND")),
		HealthAdminKeyHash:  viper.GetString("HEALTH_ADMIN_KEY_HASH"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DappNote == "" {
		return fmt.Errorf("DAPP_NOTE must not be empty")
	}
	switch c.IndexCacheBackend {
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when INDEX_CACHE_BACKEND=redis")
		}
	case "sql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when INDEX_CACHE_BACKEND=sql")
		}
	default:
		return fmt.Errorf("unknown INDEX_CACHE_BACKEND %q", c.IndexCacheBackend)
	}
	if c.IndexerRPS <= 0 {
		return fmt.Errorf("INDEXER_RPS must be positive")
	}
	return nil
}
