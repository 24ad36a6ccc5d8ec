package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-scout/internal/validate"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Brave      BraveConfig      `yaml:"brave" mapstructure:"brave"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Validation ValidateConfig   `yaml:"validate" mapstructure:"validate"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Denylist   DenylistConfig   `yaml:"denylist" mapstructure:"denylist"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// BraveConfig holds Brave search API settings.
type BraveConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Count   int    `yaml:"count" mapstructure:"count"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// FetchConfig configures page fetches during discovery.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes    int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// Timeout returns the fetch timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ValidateConfig configures the deep validation tier.
type ValidateConfig struct {
	Deep             bool                        `yaml:"deep" mapstructure:"deep"`
	TimeoutSecs      int                         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent        string                      `yaml:"user_agent" mapstructure:"user_agent"`
	MaxSocialChecks  int                         `yaml:"max_social_checks" mapstructure:"max_social_checks"`
	MaxWebsiteChecks int                         `yaml:"max_website_checks" mapstructure:"max_website_checks"`
	RatePerSec       float64                     `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst        int                         `yaml:"rate_burst" mapstructure:"rate_burst"`
	Profiles         map[string]validate.Profile `yaml:"profiles" mapstructure:"profiles"`
}

// Timeout returns the per-check timeout as a duration.
func (c ValidateConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// DiscoveryConfig configures query runs.
type DiscoveryConfig struct {
	FetchConcurrency    int `yaml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
	SearchRetries       int `yaml:"search_retries" mapstructure:"search_retries"`
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// BreakerCooldown returns how long an open search breaker waits before a probe.
func (c DiscoveryConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSecs) * time.Second
}

// DenylistConfig points at an optional YAML file of extra denylist entries.
type DenylistConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lead-scout.db")
	v.SetDefault("brave.key", "")
	v.SetDefault("brave.base_url", "https://api.search.brave.com/res/v1")
	v.SetDefault("brave.count", 20)
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; LeadScout/1.0)")
	v.SetDefault("fetch.max_bytes", 2<<20)
	v.SetDefault("validate.deep", false)
	v.SetDefault("validate.timeout_secs", 5)
	v.SetDefault("validate.max_social_checks", validate.DefaultMaxSocialChecks)
	v.SetDefault("validate.max_website_checks", validate.DefaultMaxWebsiteChecks)
	v.SetDefault("validate.rate_per_sec", 5.0)
	v.SetDefault("validate.rate_burst", 5)
	v.SetDefault("discovery.fetch_concurrency", 5)
	v.SetDefault("discovery.search_retries", 2)
	v.SetDefault("discovery.breaker_threshold", 5)
	v.SetDefault("discovery.breaker_cooldown_secs", 30)
	v.SetDefault("denylist.file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
