package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

// Config holds all configuration for the engine.
type Config struct {
	Env     string        `mapstructure:"env"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Sync    SyncConfig    `mapstructure:"sync"`
}

// GatewayConfig points the engine at the habit platform API.
type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// SessionToken is the platform-issued JWT attached to every request
	// and decoded (unverified) for the session's user identity.
	SessionToken string        `mapstructure:"session_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StoreConfig configures the durable local cache.
type StoreConfig struct {
	Path string `mapstructure:"path"`
	// Cache toggles the in-process read cache layered over the store.
	Cache bool `mapstructure:"cache"`
}

// RedisConfig configures the optional Redis features: the snapshot
// mirror and the bridge rate limiter.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Mirror   bool   `mapstructure:"mirror"`
}

// BridgeConfig configures the local HTTP bridge.
type BridgeConfig struct {
	Addr       string        `mapstructure:"addr"`
	Token      string        `mapstructure:"token"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

// SyncConfig tunes the reconciliation loop.
type SyncConfig struct {
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	DefaultScope  string        `mapstructure:"default_scope"`
}

// Load reads configuration from defaults, an optional YAML file, and
// STATS_-prefixed environment variables, in rising precedence. An empty
// path falls back to ./config.yaml when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("env", "development")
	v.SetDefault("gateway.base_url", "")
	v.SetDefault("gateway.session_token", "")
	v.SetDefault("gateway.timeout", 15*time.Second)
	v.SetDefault("store.path", "stats-engine.db")
	v.SetDefault("store.cache", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.mirror", false)
	v.SetDefault("bridge.addr", ":8080")
	v.SetDefault("bridge.token", "")
	v.SetDefault("bridge.rate_limit", 60)
	v.SetDefault("bridge.rate_window", time.Minute)
	v.SetDefault("sync.probe_interval", 30*time.Second)
	v.SetDefault("sync.default_scope", string(domain.ScopeDaily))

	v.SetEnvPrefix("STATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values the engine cannot run without.
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("STATS_GATEWAY_BASE_URL is required")
	}
	if _, err := domain.ParseScope(c.Sync.DefaultScope); err != nil {
		return fmt.Errorf("sync.default_scope: %w", err)
	}
	if c.Bridge.RateLimit < 0 {
		return fmt.Errorf("bridge.rate_limit must not be negative")
	}
	if c.Sync.ProbeInterval <= 0 {
		return fmt.Errorf("sync.probe_interval must be positive")
	}
	return nil
}
