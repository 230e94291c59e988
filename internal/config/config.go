package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"storytelling-server/internal/utils"

	"github.com/kelseyhightower/envconfig"
)

// Placeholder API keys shipped in sample env files are treated as missing.
const PlaceholderAPIKey = "your-api-key-here"

// Config holds the service configuration.
type Config struct {
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Read from the db_password secret or DB_PASSWORD.
	DBPassword string `ignored:"true"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Read from the redis_password secret or REDIS_PASSWORD.
	RedisPassword string `ignored:"true"`

	CacheBackend       string        `envconfig:"CACHE_BACKEND" default:"postgres"`
	CacheEnabled       bool          `envconfig:"CACHE_ENABLED" default:"true"`
	CacheTTL           time.Duration `envconfig:"CACHE_TTL" default:"168h"`
	CacheSweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"24h"`

	// Session events are not published when RabbitMQURL is empty.
	RabbitMQURL           string `envconfig:"RABBITMQ_URL"`
	SessionEventsExchange string `envconfig:"SESSION_EVENTS_EXCHANGE" default:"story_session_events"`

	AIProvider       string        `envconfig:"AI_PROVIDER" default:"openai"`
	AIModel          string        `envconfig:"AI_MODEL"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL"`
	AIMaxTokens      int           `envconfig:"AI_MAX_TOKENS" default:"2000"`
	AITemperature    float64       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AIConnectTimeout time.Duration `envconfig:"AI_CONNECT_TIMEOUT" default:"10s"`
	// Read from the provider's secret file or environment variable.
	AIAPIKey string `ignored:"true"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Tokens must carry this iss claim when set.
	JWTIssuer string        `envconfig:"JWT_ISSUER"`
	JWTLeeway time.Duration `envconfig:"JWT_LEEWAY" default:"30s"`
	// Read from the jwt_secret secret or JWT_SECRET.
	JWTSecret string `ignored:"true"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// AIKeyConfigured reports whether a usable provider credential is present.
func (c *Config) AIKeyConfigured() bool {
	key := strings.TrimSpace(c.AIAPIKey)
	return key != "" && key != PlaceholderAPIKey
}

// apiKeySources maps a provider to its secret file and environment variable.
var apiKeySources = map[string][2]string{
	"openai": {"openai_api_key", "OPENAI_API_KEY"},
	"claude": {"anthropic_api_key", "ANTHROPIC_API_KEY"},
	"gemini": {"gemini_api_key", "GEMINI_API_KEY"},
}

// LoadConfig reads the environment and the secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))

	cfg.DBPassword = utils.ReadSecretOrEnv("db_password", "DB_PASSWORD")
	cfg.RedisPassword = utils.ReadSecretOrEnv("redis_password", "REDIS_PASSWORD")
	cfg.JWTSecret = utils.ReadSecretOrEnv("jwt_secret", "JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required (secret file jwt_secret or JWT_SECRET)")
	}
	if src, ok := apiKeySources[cfg.AIProvider]; ok {
		cfg.AIAPIKey = utils.ReadSecretOrEnv(src[0], src[1])
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Cache: backend=%s enabled=%t ttl=%v sweep=%v", cfg.CacheBackend, cfg.CacheEnabled, cfg.CacheTTL, cfg.CacheSweepInterval)
	log.Printf("  AI: provider=%s model=%s timeout=%v key configured=%t", cfg.AIProvider, cfg.AIModel, cfg.AITimeout, cfg.AIKeyConfigured())
	log.Printf("  RabbitMQ enabled: %t", cfg.RabbitMQURL != "")

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.AIProvider {
	case "openai", "claude", "gemini", "ollama":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}
	switch c.CacheBackend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	return nil
}
