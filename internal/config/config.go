package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Collect CollectConfig `yaml:"collect" mapstructure:"collect"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Targets TargetsConfig `yaml:"targets" mapstructure:"targets"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the storage backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// HTTPConfig configures the shared fetch client.
type HTTPConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// CollectConfig configures pagination and retry behavior shared by all
// collectors.
type CollectConfig struct {
	PageSize         int    `yaml:"page_size" mapstructure:"page_size"`
	MaxPages         int    `yaml:"max_pages" mapstructure:"max_pages"`
	Mode             string `yaml:"mode" mapstructure:"mode"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// SourcesConfig holds per-source API settings.
type SourcesConfig struct {
	Surveys   SourceConfig `yaml:"surveys" mapstructure:"surveys"`
	Workspace SourceConfig `yaml:"workspace" mapstructure:"workspace"`
	Meetings  SourceConfig `yaml:"meetings" mapstructure:"meetings"`
	SCM       SourceConfig `yaml:"scm" mapstructure:"scm"`
}

// SourceConfig holds a single source endpoint. Credentials come from the
// credential provider, never from here.
type SourceConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// TargetsConfig points at an optional YAML file overriding the built-in
// storage target definitions.
type TargetsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys meant to come from the environment still need an empty
	// default: AutomaticEnv only surfaces known keys during Unmarshal.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.path", "pulse.db")
	v.SetDefault("targets.path", "")
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.user_agent", "pulse-cli/1.0")
	v.SetDefault("http.rate_limit", 20)
	v.SetDefault("http.rate_burst", 20)
	v.SetDefault("collect.page_size", 100)
	v.SetDefault("collect.max_pages", 50)
	v.SetDefault("collect.mode", "upsert")
	v.SetDefault("collect.max_attempts", 3)
	v.SetDefault("collect.initial_backoff_ms", 1000)
	v.SetDefault("sources.surveys.endpoint", "https://surveys.internal.arborinsights.com/api/v1/responses")
	v.SetDefault("sources.workspace.endpoint", "https://workspace.internal.arborinsights.com/api/v1/usage")
	v.SetDefault("sources.meetings.endpoint", "https://meetings.internal.arborinsights.com/api/v1/meetings")
	v.SetDefault("sources.scm.endpoint", "https://scm.internal.arborinsights.com/api/v1/commits")
	v.SetDefault("server.port", 8080)
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
