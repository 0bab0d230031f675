package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Gateway   GatewayConfig
	Batch     BatchConfig
	Directory DirectoryConfig
	Redis     RedisConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// GatewayConfig holds the carrier API connection settings
type GatewayConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RateLimitQPS   float64
	RateLimitBurst int
}

// BatchConfig holds bulk processing settings
type BatchConfig struct {
	Concurrency        int
	ChunkSize          int
	ItemTimeout        time.Duration
	DefaultRegion      string
	AutoVerifyCarriers []string
}

// DirectoryConfig points at optional lookup table files. Empty paths use
// the built-in tables.
type DirectoryConfig struct {
	WarehouseFile string
	SignerFile    string
}

// RedisConfig holds Redis connection settings for the idempotency and memo stores
type RedisConfig struct {
	Enabled        bool
	Host           string
	Port           int
	Password       string
	DB             int
	KeyPrefix      string
	IdempotencyTTL time.Duration
	MemoTTL        time.Duration
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Limits on batch concurrency
const (
	MinConcurrency = 1
	MaxConcurrency = 64
)

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BULKSHIP_ prefix (e.g., BULKSHIP_GATEWAY_API_KEY)
// 2. config.toml, or the file given by path
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/bulkship")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BULKSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Gateway: GatewayConfig{
			BaseURL:        v.GetString("gateway.base_url"),
			APIKey:         v.GetString("gateway.api_key"),
			Timeout:        v.GetDuration("gateway.timeout"),
			RateLimitQPS:   v.GetFloat64("gateway.rate_limit_qps"),
			RateLimitBurst: v.GetInt("gateway.rate_limit_burst"),
		},
		Batch: BatchConfig{
			Concurrency:        v.GetInt("batch.concurrency"),
			ChunkSize:          v.GetInt("batch.chunk_size"),
			ItemTimeout:        v.GetDuration("batch.item_timeout"),
			DefaultRegion:      v.GetString("batch.default_region"),
			AutoVerifyCarriers: v.GetStringSlice("batch.auto_verify_carriers"),
		},
		Directory: DirectoryConfig{
			WarehouseFile: v.GetString("directory.warehouse_file"),
			SignerFile:    v.GetString("directory.signer_file"),
		},
		Redis: RedisConfig{
			Enabled:        v.GetBool("redis.enabled"),
			Host:           v.GetString("redis.host"),
			Port:           v.GetInt("redis.port"),
			Password:       v.GetString("redis.password"),
			DB:             v.GetInt("redis.db"),
			KeyPrefix:      v.GetString("redis.key_prefix"),
			IdempotencyTTL: v.GetDuration("redis.idempotency_ttl"),
			MemoTTL:        v.GetDuration("redis.memo_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bulkship"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://api.easypost.com"
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = 30 * time.Second
	}
	if cfg.Gateway.RateLimitQPS == 0 {
		cfg.Gateway.RateLimitQPS = 10
	}
	if cfg.Gateway.RateLimitBurst == 0 {
		cfg.Gateway.RateLimitBurst = 10
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 8
	}
	if cfg.Batch.ChunkSize == 0 {
		cfg.Batch.ChunkSize = 8
	}
	if cfg.Batch.ItemTimeout == 0 {
		cfg.Batch.ItemTimeout = 30 * time.Second
	}
	if len(cfg.Batch.AutoVerifyCarriers) == 0 {
		cfg.Batch.AutoVerifyCarriers = []string{"FEDEX", "UPS"}
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "bulkship:"
	}
	if cfg.Redis.IdempotencyTTL == 0 {
		cfg.Redis.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Redis.MemoTTL == 0 {
		cfg.Redis.MemoTTL = time.Hour
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []string

	if c.Batch.Concurrency < MinConcurrency || c.Batch.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Sprintf("batch.concurrency must be between %d and %d", MinConcurrency, MaxConcurrency))
	}
	if c.Batch.ChunkSize < 1 {
		errs = append(errs, "batch.chunk_size must be at least 1")
	}
	if c.Batch.ItemTimeout <= 0 {
		errs = append(errs, "batch.item_timeout must be positive")
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, "gateway.timeout must be positive")
	}
	if c.Gateway.RateLimitQPS < 0 {
		errs = append(errs, "gateway.rate_limit_qps must not be negative")
	}
	if u, err := url.Parse(c.Gateway.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "gateway.base_url must be an absolute URL")
	}
	if c.IsProduction() && c.Gateway.APIKey == "" {
		errs = append(errs, "gateway.api_key is required in production")
	}
	if c.Redis.Enabled && c.Redis.IdempotencyTTL <= 0 {
		errs = append(errs, "redis.idempotency_ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
