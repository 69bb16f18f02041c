package config

import (
	"fmt"
	"time"

	"github.com/utafrali/PatronScore/internal/publisher"
	pkgconfig "github.com/utafrali/PatronScore/pkg/config"
)

// Cache backends.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Config holds all configuration for the reputation service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort    int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	PprofCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Lookup throttling, per client IP.
	LookupRatePerMinute int  `env:"LOOKUP_RATE_PER_MINUTE" envDefault:"60"`
	LookupRateBurst     int  `env:"LOOKUP_RATE_BURST" envDefault:"10"`
	TrustForwarded      bool `env:"TRUST_FORWARDED" envDefault:"false"`

	// Secret key for phone lookup keys. Changing it orphans every stored
	// customer, so set it once before the first review.
	LookupKeyPepper string `env:"LOOKUP_KEY_PEPPER"`

	// PostgreSQL
	PostgresHost       string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort       int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser       string        `env:"POSTGRES_USER" envDefault:"patronscore"`
	PostgresPass       string        `env:"POSTGRES_PASSWORD" envDefault:"patronscore_secret"`
	PostgresDB         string        `env:"POSTGRES_DB" envDefault:"patronscore"`
	PostgresSSL        string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns   int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresMinConns   int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Aggregate cache: "redis", or "memory" for a single-instance process.
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"redis"`
	RedisAddr    string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string        `env:"REDIS_PASSWORD"`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"168h"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"OTEL_TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Title generation. Without an API key every share uses the fallback title.
	TitleAPIURL  string        `env:"TITLE_API_URL" envDefault:"https://api.openai.com"`
	TitleAPIKey  string        `env:"TITLE_API_KEY"`
	TitleModel   string        `env:"TITLE_MODEL" envDefault:"gpt-4o-mini"`
	TitleTimeout time.Duration `env:"TITLE_TIMEOUT" envDefault:"5s"`

	// External publishing
	PublisherProvider string `env:"PUBLISHER_PROVIDER" envDefault:"mock"`
	MockPublisherURL  string `env:"MOCK_PUBLISHER_URL"`
	RedditClientID    string `env:"REDDIT_CLIENT_ID"`
	RedditSecret      string `env:"REDDIT_CLIENT_SECRET"`
	RedditUsername    string `env:"REDDIT_USERNAME"`
	RedditPassword    string `env:"REDDIT_PASSWORD"`
	RedditUserAgent   string `env:"REDDIT_USER_AGENT" envDefault:"patronscore/1.0"`
	RedditAuthURL     string `env:"REDDIT_AUTH_URL"`
	RedditAPIURL      string `env:"REDDIT_API_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load reputation config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants. pkg/config.Load calls it after
// parsing.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("invalid postgres port: %d", c.PostgresPort)
	}
	if c.PostgresMinConns < 0 || c.PostgresMaxConns < 1 || c.PostgresMinConns > c.PostgresMaxConns {
		return fmt.Errorf("invalid postgres pool size: min %d, max %d", c.PostgresMinConns, c.PostgresMaxConns)
	}
	if c.LookupRatePerMinute < 1 || c.LookupRateBurst < 1 {
		return fmt.Errorf("invalid lookup rate limit: %d/min, burst %d", c.LookupRatePerMinute, c.LookupRateBurst)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("invalid tracing sample rate: %v", c.TracingSampleRate)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache TTL: %s", c.CacheTTL)
	}
	if c.CacheBackend != CacheRedis && c.CacheBackend != CacheMemory {
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one kafka broker is required")
	}

	switch c.PublisherProvider {
	case publisher.ProviderMock:
	case publisher.ProviderReddit:
		if c.RedditClientID == "" || c.RedditSecret == "" || c.RedditUsername == "" || c.RedditPassword == "" {
			return fmt.Errorf("reddit publisher requires REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME and REDDIT_PASSWORD")
		}
	default:
		return fmt.Errorf("unknown publisher provider %q", c.PublisherProvider)
	}
	return nil
}

// UseRedis reports whether aggregates are cached in Redis.
func (c *Config) UseRedis() bool {
	return c.CacheBackend == CacheRedis
}
