package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// LLM provider identifiers accepted by SUPP_LLM_PROVIDER.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config aggregates all runtime settings.
type Config struct {
	App      AppConfig      `envPrefix:"SUPP_"`
	HTTP     HTTPConfig     `envPrefix:"SUPP_HTTP_"`
	Catalog  CatalogConfig  `envPrefix:"SUPP_CATALOG_"`
	Database DatabaseConfig `envPrefix:"SUPP_DB_"`
	Redis    RedisConfig    `envPrefix:"SUPP_REDIS_"`
	LLM      LLMConfig      `envPrefix:"SUPP_LLM_"`
}

type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"supplementer"`
}

type HTTPConfig struct {
	Host              string        `env:"HOST" envDefault:"0.0.0.0"`
	Port              int           `env:"PORT" envDefault:"5000"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"25s"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimit         int           `env:"RATE_LIMIT" envDefault:"60"`
	RateWindow        time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
}

type CatalogConfig struct {
	Path string `env:"PATH" envDefault:"./data/supplementinfo.csv"`
}

// DatabaseConfig points at the PostgreSQL instance holding request history.
// An empty URL disables history.
type DatabaseConfig struct {
	URL             string        `env:"URL"`
	MaxConns        int32         `env:"MAX_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	RunMigrations   bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
}

// RedisConfig configures the generation cache and rate limiter.
// An empty address disables both.
type RedisConfig struct {
	Addr          string        `env:"ADDR"`
	Password      string        `env:"PASSWORD"`
	DB            int           `env:"DB" envDefault:"0"`
	EnableTLS     bool          `env:"ENABLE_TLS" envDefault:"false"`
	Namespace     string        `env:"NAMESPACE" envDefault:"supplementer"`
	GenerationTTL time.Duration `env:"GENERATION_TTL" envDefault:"10m"`
}

type LLMConfig struct {
	Provider    string        `env:"PROVIDER" envDefault:"none"`
	Model       string        `env:"MODEL"`
	APIKey      string        `env:"API_KEY"`
	BaseURL     string        `env:"BASE_URL"`
	MaxTokens   int           `env:"MAX_TOKENS" envDefault:"200"`
	TopP        float32       `env:"TOP_P" envDefault:"0.95"`
	TopK        int           `env:"TOP_K" envDefault:"50"`
	Temperature *float32      `env:"TEMPERATURE" envDefault:"1.0"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Load parses environment variables into Config and performs validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("SUPP_CATALOG_PATH is required")
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("SUPP_HTTP_RATE_LIMIT must not be negative")
	}

	switch c.LLM.Provider {
	case ProviderNone:
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("gemini provider requires SUPP_LLM_API_KEY")
		}
	case ProviderOpenAI:
		// self-hosted completion servers usually run without a key
		if c.LLM.APIKey == "" && c.LLM.BaseURL == "" {
			return fmt.Errorf("openai provider requires SUPP_LLM_API_KEY or SUPP_LLM_BASE_URL")
		}
	default:
		return fmt.Errorf("unknown SUPP_LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Provider != ProviderNone && c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("SUPP_LLM_MAX_TOKENS must be positive")
	}

	return nil
}
