package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Map        MapConfig        `yaml:"map" mapstructure:"map"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// GeocodeConfig configures ZIP code resolution.
type GeocodeConfig struct {
	Providers   []string       `yaml:"providers" mapstructure:"providers"`
	Country     string         `yaml:"country" mapstructure:"country"`
	UserAgent   string         `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int            `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64        `yaml:"rate_limit" mapstructure:"rate_limit"`
	Nominatim   ProviderConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Zippopotam  ProviderConfig `yaml:"zippopotam" mapstructure:"zippopotam"`
	Google      ProviderConfig `yaml:"google" mapstructure:"google"`
	Retry       RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig  `yaml:"circuit" mapstructure:"circuit"`
}

// ProviderConfig holds per-provider endpoint settings. An empty BaseURL
// keeps the provider's public endpoint.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// RetryConfig configures retries of transient lookup failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the per-provider circuit breaker. A zero
// threshold disables it.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// CacheConfig configures the resolved-coordinate cache.
type CacheConfig struct {
	Driver  string `yaml:"driver" mapstructure:"driver"` // memory, redis or none
	TTLSecs int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	Size    int    `yaml:"size" mapstructure:"size"`
}

// RedisConfig holds the redis connection used by the redis cache driver.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// MapConfig sets the marker shown before any ZIP resolves.
type MapConfig struct {
	DefaultZipCode   string  `yaml:"default_zip_code" mapstructure:"default_zip_code"`
	DefaultLatitude  float64 `yaml:"default_latitude" mapstructure:"default_latitude"`
	DefaultLongitude float64 `yaml:"default_longitude" mapstructure:"default_longitude"`
}

// AnalysisConfig configures the dashboard analysis.
type AnalysisConfig struct {
	DelayMs int `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// MonitoringConfig configures resolver health alerts raised while serving.
type MonitoringConfig struct {
	Enabled                 bool    `yaml:"enabled" mapstructure:"enabled"`
	CheckIntervalSecs       int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	UnresolvedRateThreshold float64 `yaml:"unresolved_rate_threshold" mapstructure:"unresolved_rate_threshold"`
	MinLookups              int     `yaml:"min_lookups" mapstructure:"min_lookups"`
	WebhookURL              string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OPPORTUNITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("geocode.providers", []string{"nominatim"})
	v.SetDefault("geocode.country", "US")
	v.SetDefault("geocode.user_agent", "opportunity-analyzer/1.0")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.nominatim.base_url", "")
	v.SetDefault("geocode.zippopotam.base_url", "")
	v.SetDefault("geocode.google.base_url", "")
	v.SetDefault("geocode.google.api_key", "")
	v.SetDefault("geocode.retry.max_attempts", 3)
	v.SetDefault("geocode.retry.initial_backoff_ms", 250)
	v.SetDefault("geocode.retry.max_backoff_ms", 5000)
	v.SetDefault("geocode.circuit.failure_threshold", 5)
	v.SetDefault("geocode.circuit.reset_timeout_secs", 30)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl_secs", 86400)
	v.SetDefault("cache.size", 10000)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("map.default_zip_code", "12345")
	v.SetDefault("map.default_latitude", 40.7128)
	v.SetDefault("map.default_longitude", -74.0060)
	v.SetDefault("analysis.delay_ms", 2000)
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.check_interval_secs", 60)
	v.SetDefault("monitoring.unresolved_rate_threshold", 0.5)
	v.SetDefault("monitoring.min_lookups", 5)
	v.SetDefault("monitoring.webhook_url", "")
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

var knownProviders = map[string]bool{"nominatim": true, "zippopotam": true, "google": true}

// Validate checks the settings a command relies on. Mode is "serve",
// "resolve" or "analyze".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	case "resolve", "analyze":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(c.Geocode.Providers) == 0 {
		errs = append(errs, "geocode.providers must not be empty")
	}
	for _, p := range c.Geocode.Providers {
		if !knownProviders[p] {
			errs = append(errs, "geocode.providers: unknown provider "+p)
		}
		if p == "google" && c.Geocode.Google.APIKey == "" {
			errs = append(errs, "geocode.google.api_key is required when google is a provider")
		}
	}
	if c.Geocode.TimeoutSecs <= 0 {
		errs = append(errs, "geocode.timeout_secs must be > 0")
	}
	if c.Geocode.Retry.MaxAttempts < 1 {
		errs = append(errs, "geocode.retry.max_attempts must be >= 1")
	}

	switch c.Cache.Driver {
	case "none":
	case "memory", "redis":
		if c.Cache.TTLSecs <= 0 {
			errs = append(errs, "cache.ttl_secs must be > 0")
		}
		if c.Cache.Driver == "redis" && c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required for the redis cache driver")
		}
	default:
		errs = append(errs, "cache.driver must be one of memory, redis, none")
	}

	if c.Map.DefaultLatitude < -90 || c.Map.DefaultLatitude > 90 ||
		c.Map.DefaultLongitude < -180 || c.Map.DefaultLongitude > 180 {
		errs = append(errs, "map default coordinates out of range")
	}
	if c.Analysis.DelayMs < 0 {
		errs = append(errs, "analysis.delay_ms must be >= 0")
	}
	if t := c.Monitoring.UnresolvedRateThreshold; t < 0 || t > 1 {
		errs = append(errs, "monitoring.unresolved_rate_threshold must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
