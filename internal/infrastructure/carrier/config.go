package carrier

import (
	"errors"
	"net/url"
	"time"

	"github.com/erp/bulkship/internal/infrastructure/config"
)

// DefaultBaseURL is the production API endpoint
const DefaultBaseURL = "https://api.easypost.com"

// Errors for carrier client configuration
var (
	ErrConfigMissingAPIKey  = errors.New("carrier: api key is required")
	ErrConfigInvalidBaseURL = errors.New("carrier: base url must be an absolute http(s) url")
	ErrConfigInvalidTimeout = errors.New("carrier: timeout must be positive")
	ErrConfigInvalidRate    = errors.New("carrier: rate limit must not be negative")
)

// Config holds the carrier API connection settings
type Config struct {
	// BaseURL is the API root, without the /v2 suffix
	BaseURL string
	// APIKey is sent as the basic-auth user name
	APIKey string
	// Timeout bounds each HTTP request
	Timeout time.Duration
	// RateLimitQPS caps outgoing requests per second; zero disables the limiter
	RateLimitQPS float64
	// RateLimitBurst is the token bucket size
	RateLimitBurst int
}

// NewConfig creates a configuration with defaults for the given key
func NewConfig(apiKey string) *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		APIKey:         apiKey,
		Timeout:        30 * time.Second,
		RateLimitQPS:   10,
		RateLimitBurst: 10,
	}
}

// FromSettings maps the gateway section of the application config
func FromSettings(gw config.GatewayConfig) *Config {
	return &Config{
		BaseURL:        gw.BaseURL,
		APIKey:         gw.APIKey,
		Timeout:        gw.Timeout,
		RateLimitQPS:   gw.RateLimitQPS,
		RateLimitBurst: gw.RateLimitBurst,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	if c.Timeout <= 0 {
		return ErrConfigInvalidTimeout
	}
	if c.RateLimitQPS < 0 || c.RateLimitBurst < 0 {
		return ErrConfigInvalidRate
	}
	return nil
}
