package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	CatalogMaxAge  time.Duration `env:"CATALOG_CACHE_MAX_AGE" envDefault:"60s"`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Product catalog API
	CatalogBaseURL     string        `env:"CATALOG_BASE_URL" envDefault:"https://api.escuelajs.co/api/v1"`
	CatalogTimeout     time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	CatalogMaxRetries  int           `env:"CATALOG_MAX_RETRIES" envDefault:"2"`
	CatalogRPS         float64       `env:"CATALOG_REQUESTS_PER_SECOND" envDefault:"20"`
	CatalogBurst       int           `env:"CATALOG_BURST" envDefault:"10"`
	BreakerMinRequests uint32        `env:"CATALOG_BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerFailRatio   float64       `env:"CATALOG_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerOpenTimeout time.Duration `env:"CATALOG_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	// Shelves
	ShelfCategoryID   int           `env:"SHELF_CATEGORY_ID" envDefault:"4"`
	ShelfRefresh      time.Duration `env:"SHELF_REFRESH_INTERVAL" envDefault:"5m"`
	RelatedCategoryID int           `env:"RELATED_CATEGORY_ID" envDefault:"4"`
	RelatedLimit      int           `env:"RELATED_LIMIT" envDefault:"8"`

	// Cart storage. MemoryStore keeps carts in process instead of Redis.
	MemoryStore bool          `env:"CART_MEMORY_STORE" envDefault:"false"`
	RedisHost   string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort   int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass   string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	CartTTL     time.Duration `env:"CART_SESSION_TTL" envDefault:"2h"`

	// Kafka. No brokers disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow Redis operation logging
	SlowOpThresholdMs int `env:"LOG_SLOW_OP_MS" envDefault:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.CatalogBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CATALOG_BASE_URL must be an absolute http(s) URL, got %q", c.CatalogBaseURL)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative")
	}
	if c.CatalogRPS < 0 {
		return fmt.Errorf("CATALOG_REQUESTS_PER_SECOND must not be negative")
	}
	if c.BreakerFailRatio <= 0 || c.BreakerFailRatio > 1.0 {
		return fmt.Errorf("CATALOG_BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailRatio)
	}
	if c.ShelfCategoryID < 1 || c.RelatedCategoryID < 1 {
		return fmt.Errorf("shelf and related category ids must be positive")
	}
	if c.RelatedLimit < 1 {
		return fmt.Errorf("RELATED_LIMIT must be positive")
	}
	if c.ShelfRefresh < 0 {
		return fmt.Errorf("SHELF_REFRESH_INTERVAL must not be negative")
	}
	if c.CartTTL <= 0 {
		return fmt.Errorf("CART_SESSION_TTL must be positive")
	}
	if !c.MemoryStore && c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required unless CART_MEMORY_STORE is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
