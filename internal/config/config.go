package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Leads    LeadsConfig    `yaml:"leads" mapstructure:"leads"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the outcome store backend. For sqlite,
// DatabaseURL is a file path.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the geocode and query response caches. Driver is
// "store" (a table in the outcome database), "memory" or "redis".
type CacheConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// GeocodeConfig configures the Nominatim postal code resolver.
type GeocodeConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	Country     string  `yaml:"country" mapstructure:"country"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMs   int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout bounds a single geocoding attempt.
func (c GeocodeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// OverpassConfig configures the Overpass query client.
type OverpassConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMs   int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout bounds a single query attempt.
func (c OverpassConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LeadsConfig configures lead extraction and ranking.
type LeadsConfig struct {
	DemoBaseURL string `yaml:"demo_base_url" mapstructure:"demo_base_url"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
}

// NotionConfig holds the Notion export settings. Token may be left empty in
// favour of the OS keychain.
type NotionConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	ParentPageID string `yaml:"parent_page_id" mapstructure:"parent_page_id"`
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
	v.SetEnvPrefix("HOTLEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lead_calls.db")
	v.SetDefault("cache.driver", "store")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "hotleads/1.0")
	v.SetDefault("geocode.country", "USA")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.max_attempts", 3)
	v.SetDefault("geocode.backoff_ms", 1000)
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 60)
	v.SetDefault("overpass.max_attempts", 3)
	v.SetDefault("overpass.backoff_ms", 1000)
	v.SetDefault("overpass.rate_limit", 0.0)
	v.SetDefault("leads.demo_base_url", "https://yourdomain.com/demo")
	v.SetDefault("leads.max_results", 50)
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

// Validate checks the settings a command needs. mode is one of "search",
// "reconcile", "outcomes", "cache", "serve" or "notion".
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	storeChecks := func() {
		require(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres",
			fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
		require(c.Store.DatabaseURL != "", "store.database_url is required")
	}
	cacheChecks := func() {
		switch c.Cache.Driver {
		case "store", "memory":
		case "redis":
			require(c.Cache.RedisURL != "", "cache.redis_url is required for the redis cache")
		default:
			problems = append(problems, fmt.Sprintf("cache.driver must be store, memory or redis (got %q)", c.Cache.Driver))
		}
		require(c.Cache.TTLHours > 0, "cache.ttl_hours must be > 0")
	}
	upstreamChecks := func() {
		require(c.Geocode.BaseURL != "", "geocode.base_url is required")
		require(c.Geocode.UserAgent != "", "geocode.user_agent is required")
		require(c.Geocode.TimeoutSecs > 0 && c.Geocode.TimeoutSecs <= 10, "geocode.timeout_secs must be between 1 and 10")
		require(c.Overpass.BaseURL != "", "overpass.base_url is required")
		require(c.Overpass.TimeoutSecs > 0 && c.Overpass.TimeoutSecs <= 60, "overpass.timeout_secs must be between 1 and 60")
		require(c.Leads.MaxResults >= 1 && c.Leads.MaxResults <= 50, "leads.max_results must be between 1 and 50")
	}

	switch mode {
	case "search":
		storeChecks()
		cacheChecks()
		upstreamChecks()
	case "serve":
		storeChecks()
		cacheChecks()
		upstreamChecks()
		require(c.Server.Port > 0, "server.port must be > 0")
	case "reconcile", "outcomes":
		storeChecks()
	case "cache":
		storeChecks()
		cacheChecks()
	case "notion":
		require(c.Notion.ParentPageID != "", "notion.parent_page_id is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
