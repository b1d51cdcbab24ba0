// Package config loads the service configuration from a YAML file and
// JOBMATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/job-matcher/internal/fetch"
	"github.com/jonathan/job-matcher/internal/hotjobs"
	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/platforms"
	"github.com/jonathan/job-matcher/internal/scoring"
	"github.com/jonathan/job-matcher/internal/server"
	"github.com/jonathan/job-matcher/internal/server/ratelimit"
	"github.com/spf13/viper"
)

// App is the application name, used for the config file and env prefix.
const App = "jobmatch"

// Store drivers.
const (
	StoreNone     = "none"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the full service configuration.
type Config struct {
	Server   server.Config  `mapstructure:"server"`
	HotJobs  hotjobs.Config `mapstructure:"hot_jobs"`
	Adapters AdaptersConfig `mapstructure:"adapters"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// AdaptersConfig lists the live job sources and their isolation settings.
type AdaptersConfig struct {
	Timeout         time.Duration          `mapstructure:"timeout" validate:"gte=0"`
	BreakerFailures uint32                 `mapstructure:"breaker_failures"`
	BreakerOpenFor  time.Duration          `mapstructure:"breaker_open_for" validate:"gte=0"`
	Greenhouse      ATSConfig              `mapstructure:"greenhouse"`
	Lever           ATSConfig              `mapstructure:"lever"`
	Feeds           []platforms.FeedConfig `mapstructure:"feeds" validate:"dive"`
}

// ATSConfig is one applicant-tracking system and the boards polled on it.
type ATSConfig struct {
	BaseURL string            `mapstructure:"base_url" validate:"omitempty,url"`
	Boards  []platforms.Board `mapstructure:"boards" validate:"dive"`
}

// Options converts the isolation settings for the router.
func (a AdaptersConfig) Options() platforms.Options {
	return platforms.Options{
		Timeout:         a.Timeout,
		BreakerFailures: a.BreakerFailures,
		BreakerOpenFor:  a.BreakerOpenFor,
	}
}

// FetchConfig tunes the shared outbound HTTP client.
type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=1"`
}

// Options converts to fetch client options.
func (f FetchConfig) Options() *fetch.Options {
	opts := fetch.DefaultOptions()
	if f.Timeout > 0 {
		opts.Timeout = f.Timeout
	}
	if f.UserAgent != "" {
		opts.UserAgent = f.UserAgent
	}
	return opts
}

// LLMConfig selects the model and its credentials.
type LLMConfig struct {
	APIKey         string            `mapstructure:"api_key"`
	Provider       string            `mapstructure:"provider"`
	Models         map[string]string `mapstructure:"models"`
	Temperature    float32           `mapstructure:"temperature"`
	Timeout        time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	BreakerOpenFor time.Duration     `mapstructure:"breaker_open_for" validate:"gte=0"`
}

// ModelConfig converts to the llm package configuration.
func (l LLMConfig) ModelConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if l.Provider != "" {
		cfg.Provider = llm.Provider(l.Provider)
	}
	for tier, model := range l.Models {
		cfg = cfg.WithModel(llm.ModelTier(strings.ToLower(tier)), model)
	}
	cfg.Temperature = l.Temperature
	cfg.Timeout = l.Timeout
	return cfg
}

// ScoringConfig bounds scoring parallelism.
type ScoringConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
}

// StoreConfig selects the persistent job store. Driver "none" runs live only.
type StoreConfig struct {
	Driver   string         `mapstructure:"driver" validate:"oneof=none postgres mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

// PostgresConfig locates the PostgreSQL job table.
type PostgresConfig struct {
	URL   string `mapstructure:"url"`
	Table string `mapstructure:"table"`
}

// MongoConfig locates the MongoDB job collection.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// CacheConfig selects the search result cache.
type CacheConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=none memory redis"`
	Redis   struct {
		URL    string `mapstructure:"url"`
		Prefix string `mapstructure:"prefix"`
	} `mapstructure:"redis"`
}

// PipelineConfig bounds one search end to end.
type PipelineConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// LoadConfig reads path, or ./jobmatch.yaml when path is empty, overlays
// environment variables and validates the result. A missing default file is
// not an error; a missing explicit path is.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(App)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names used by existing deployments.
	_ = v.BindEnv("llm.api_key", "JOBMATCH_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("store.postgres.url", "JOBMATCH_STORE_POSTGRES_URL", "DATABASE_URL")
	_ = v.BindEnv("cache.redis.url", "JOBMATCH_CACHE_REDIS_URL", "REDIS_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(App)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the cross-field rules for the
// selected store and cache.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	switch c.Store.Driver {
	case StorePostgres:
		if c.Store.Postgres.URL == "" {
			return fmt.Errorf("config error: store.postgres.url is required for the postgres driver")
		}
	case StoreMongo:
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" {
			return fmt.Errorf("config error: store.mongo.uri and store.mongo.database are required for the mongo driver")
		}
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.URL == "" {
		return fmt.Errorf("config error: cache.redis.url is required for the redis backend")
	}
	if c.LLM.Provider != "" && llm.Provider(c.LLM.Provider) != llm.ProviderGemini {
		return fmt.Errorf("config error: unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config error: llm temperature %.2f out of range [0,2]", c.LLM.Temperature)
	}
	if len(c.Adapters.Greenhouse.Boards) == 0 && len(c.Adapters.Lever.Boards) == 0 && len(c.Adapters.Feeds) == 0 {
		return fmt.Errorf("config error: at least one live job source must be configured")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	srv := server.DefaultConfig()
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", srv.MaxBodyBytes)

	rl := ratelimit.DefaultConfig()
	v.SetDefault("server.rate_limit.enabled", rl.Enabled)
	v.SetDefault("server.rate_limit.default_limit", rl.DefaultLimit)
	v.SetDefault("server.rate_limit.default_window", rl.DefaultWindow)
	v.SetDefault("server.rate_limit.cleanup_interval", rl.CleanupInterval)
	v.SetDefault("server.rate_limit.whitelist", []string{})
	v.SetDefault("server.rate_limit.blacklist", []string{})
	v.SetDefault("server.rate_limit.endpoints", rl.EndpointConfigs)

	hot := hotjobs.DefaultConfig()
	v.SetDefault("hot_jobs.cities", hot.Cities)
	v.SetDefault("hot_jobs.exact_titles", hot.ExactTitles)
	v.SetDefault("hot_jobs.fuzzy_keywords", hot.FuzzyKeywords)
	v.SetDefault("hot_jobs.fuzzy_enabled", hot.FuzzyEnabled)

	opts := platforms.DefaultOptions()
	v.SetDefault("adapters.timeout", opts.Timeout)
	v.SetDefault("adapters.breaker_failures", opts.BreakerFailures)
	v.SetDefault("adapters.breaker_open_for", opts.BreakerOpenFor)
	v.SetDefault("adapters.greenhouse.base_url", platforms.DefaultGreenhouseURL)
	v.SetDefault("adapters.lever.base_url", platforms.DefaultLeverURL)

	f := fetch.DefaultOptions()
	v.SetDefault("fetch.timeout", f.Timeout)
	v.SetDefault("fetch.user_agent", f.UserAgent)
	v.SetDefault("fetch.requests_per_second", 2.0)
	v.SetDefault("fetch.burst", 4)

	m := llm.DefaultConfig()
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.provider", string(m.Provider))
	v.SetDefault("llm.temperature", m.Temperature)
	v.SetDefault("llm.timeout", m.Timeout)
	v.SetDefault("llm.breaker_open_for", 30*time.Second)

	v.SetDefault("scoring.concurrency", scoring.DefaultConcurrency)

	v.SetDefault("store.driver", StoreNone)
	v.SetDefault("store.postgres.url", "")
	v.SetDefault("store.postgres.table", "hot_jobs")
	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.database", "")
	v.SetDefault("store.mongo.collection", "hot_jobs")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis.url", "")
	v.SetDefault("cache.redis.prefix", "jobmatch:search:")

	v.SetDefault("pipeline.timeout", 90*time.Second)
}
