package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

// Session store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Port              int    `env:"PORT" envDefault:"3001"`
	StarknetRPCURL    string `env:"STARKNET_RPC_URL" envDefault:"https://api.cartridge.gg/x/starknet/sepolia"`
	WorldAddress      string `env:"WORLD_ADDRESS" envDefault:"0x036a97624274017898f269fa20ba5f44d0b586e7d0ec1ebef98b8d76926c1bed"`
	AccountAddress    string `env:"ACCOUNT_ADDRESS"`
	PrivateKey        string `env:"PRIVATE_KEY"`
	ToriiURL          string `env:"TORII_URL" envDefault:"http://localhost:8080"`
	SessionStore      string `env:"SESSION_STORE" envDefault:"memory"`
	RedisURL          string `env:"REDIS_URL"`
	DatabaseURL       string `env:"DATABASE_URL"`
	SessionTTLSeconds int    `env:"SESSION_TTL_SECONDS" envDefault:"86400"`
	RateLimitPerMin   int    `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// HasServiceAccount reports whether a chain service account is configured.
// Its absence is not fatal at startup: dispatch fails per-call instead.
func (c *Config) HasServiceAccount() bool {
	return c.AccountAddress != "" && c.PrivateKey != ""
}

func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q (want memory, redis, or postgres)", c.SessionStore)
	}

	if c.WorldAddress == "" {
		return fmt.Errorf("WORLD_ADDRESS must not be empty")
	}

	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive")
	}

	if !c.HasServiceAccount() {
		log.Warn().Msg("ACCOUNT_ADDRESS/PRIVATE_KEY not set: transaction dispatch will fail until configured")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
