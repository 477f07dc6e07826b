package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nulzo/oneai-gateway/internal/llm"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Tracing   TracingConfig   `mapstructure:"tracing"`

	// Credentials is resolved once from the process environment after
	// .env has been loaded.
	Credentials llm.Credentials `mapstructure:"-"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port" validate:"required,numeric"`
	Env         string   `mapstructure:"env" validate:"oneof=development test production"`
	APIKeys     []string `mapstructure:"api_keys"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gt=0"`
}

type GatewayConfig struct {
	// AdapterTimeout bounds a single vendor call. Zero disables it.
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout" validate:"min=0"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"min=0"`
	CatalogTTL     time.Duration `mapstructure:"catalog_ttl" validate:"min=0"`
	// PremiumBaseURL points the AI/ML API adapter at a different host.
	PremiumBaseURL string `mapstructure:"premium_base_url" validate:"omitempty,url"`
	// BaseURLs overrides the vendor base URL keyed by provider id.
	BaseURLs map[string]string `mapstructure:"base_urls" validate:"dive,url"`
	// Options carries per-provider adapter settings such as api versions.
	Options map[string]map[string]string `mapstructure:"options"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"min=0,max=1"`
}

// BaseURL returns the configured override for id, if any.
func (g GatewayConfig) BaseURL(id llm.ProviderID) string {
	if u := g.BaseURLs[string(id)]; u != "" {
		return u
	}
	if id == llm.AIML {
		return g.PremiumBaseURL
	}
	return ""
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	setDefaults(v)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.api_keys", []string{})
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.dsn", "oneai.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("gateway.adapter_timeout", 30*time.Second)
	v.SetDefault("gateway.poll_interval", 2*time.Second)
	v.SetDefault("gateway.catalog_ttl", 10*time.Minute)
	v.SetDefault("gateway.premium_base_url", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Credentials = llm.ResolveCredentials(nil)
	return &cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
