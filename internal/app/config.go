package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete gateway configuration, loadable from environment
// variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	SecureCookies bool   `default:"false" usage:"Mark session cookies Secure (enable behind TLS)" flag:"secure-cookies"`
	LoginPath     string `default:"/login" usage:"Storefront login page path" flag:"login-path"`
	Backend       BackendConfig
	Session       SessionConfig
	Catalog       CatalogConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// BackendConfig points the gateway at the commerce backend.
type BackendConfig struct {
	URL     string        `usage:"Commerce backend base URL (STOREFRONT_BACKEND_URL or BACKEND_URL)" flag:"backend-url"`
	Timeout time.Duration `default:"10s" usage:"Backend request timeout" flag:"backend-timeout"`
}

// SessionConfig controls browser session lifetime.
type SessionConfig struct {
	TTL time.Duration `default:"24h" usage:"Idle session eviction TTL" flag:"session-ttl"`
}

// CatalogConfig controls the product catalog cache.
type CatalogConfig struct {
	CacheTTL time.Duration `default:"1m" usage:"Catalog cache TTL" flag:"catalog-cache-ttl"`
}

// RateLimitConfig controls the per-session sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Backend.URL == "" {
		return nil, errors.New("backend URL is required: set STOREFRONT_BACKEND_URL or BACKEND_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables using
// standard names like BACKEND_URL and PORT onto the STOREFRONT_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Backend.URL == "" {
		if v := os.Getenv("BACKEND_URL"); v != "" {
			c.Backend.URL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
