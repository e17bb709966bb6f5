// Package config loads application configuration from file and environment
// and owns global logger initialization.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds scoring model API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ScoringConfig governs the rate-limited scoring gateway and batch sizing.
// The external service enforces a hard per-minute ceiling; both throttles
// are mandatory and independent.
type ScoringConfig struct {
	MinIntervalSecs float64 `yaml:"min_interval_secs" mapstructure:"min_interval_secs"`
	RPMLimit        int     `yaml:"rpm_limit" mapstructure:"rpm_limit"`
	MaxHistory      int     `yaml:"max_history" mapstructure:"max_history"`
	MaxAttempts     int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseBackoffSecs float64 `yaml:"base_backoff_secs" mapstructure:"base_backoff_secs"`
	BatchSize       int     `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency     int     `yaml:"concurrency" mapstructure:"concurrency"`
	MaxSnippets     int     `yaml:"max_snippets" mapstructure:"max_snippets"`
	MaxSources      int     `yaml:"max_sources" mapstructure:"max_sources"`
	Disabled        bool    `yaml:"disabled" mapstructure:"disabled"`
}

// MinInterval returns the minimum spacing between outbound calls.
func (c ScoringConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalSecs * float64(time.Second))
}

// BaseBackoff returns the base retry delay for transient failures.
func (c ScoringConfig) BaseBackoff() time.Duration {
	return time.Duration(c.BaseBackoffSecs * float64(time.Second))
}

// FetchConfig configures the conference-site page fetcher.
type FetchConfig struct {
	UserAgent   string   `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int      `yaml:"max_retries" mapstructure:"max_retries"`
	RPS         float64  `yaml:"rps" mapstructure:"rps"`
	Burst       int      `yaml:"burst" mapstructure:"burst"`
	TargetPaths []string `yaml:"target_paths" mapstructure:"target_paths"`
}

// ExportConfig configures output artifacts.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CONFSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "confscout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1600)
	v.SetDefault("scoring.min_interval_secs", 3.0)
	v.SetDefault("scoring.rpm_limit", 15)
	v.SetDefault("scoring.max_history", 100)
	v.SetDefault("scoring.max_attempts", 3)
	v.SetDefault("scoring.base_backoff_secs", 5.0)
	v.SetDefault("scoring.batch_size", 20)
	v.SetDefault("scoring.concurrency", 4)
	v.SetDefault("scoring.max_snippets", 3)
	v.SetDefault("scoring.max_sources", 5)
	v.SetDefault("fetch.user_agent", "confscout/1.0")
	v.SetDefault("fetch.timeout_secs", 45)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rps", 1.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.target_paths", []string{
		"/speakers", "/agenda", "/sponsors", "/exhibitors", "/mediapartners", "/partners",
	})
	v.SetDefault("export.dir", "outputs")

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
