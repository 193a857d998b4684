package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/resolver"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Remote   RemoteConfig      `yaml:"remote"`
	Cache    CacheConfig       `yaml:"cache"`
	Resolver ResolverConfig    `yaml:"resolver"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Resolver.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// StatsInterval is how often cache statistics are logged; zero disables it.
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.StatsInterval, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RemoteConfig describes the default Memos server and the HTTP client
// used to reach it.
type RemoteConfig struct {
	DefaultHost string        `yaml:"default_host"`
	DefaultUser string        `yaml:"default_user"`
	Timeout     time.Duration `yaml:"timeout"`
	QueryLimit  int           `yaml:"query_limit"`
}

// Validate validates the remote configuration. The default server is
// optional; sessions then have to select one.
func (c *RemoteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DefaultHost, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.QueryLimit, validation.Min(1), validation.Max(models.MaxQueryLimit)),
	); err != nil {
		return fmt.Errorf("remote: %w", err)
	}
	return nil
}

// Partition returns the default partition.
func (c *RemoteConfig) Partition() models.Partition {
	return models.Partition{Host: c.DefaultHost, User: c.DefaultUser}
}

// CacheConfig holds entry lifetimes.
type CacheConfig struct {
	NoteTTL time.Duration `yaml:"note_ttl"`
	ListTTL time.Duration `yaml:"list_ttl"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.NoteTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ListTTL, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// ResolverConfig bounds relation resolution.
type ResolverConfig struct {
	MaxDepth    int `yaml:"max_depth"`
	Concurrency int `yaml:"concurrency"`
}

// Validate validates the resolver configuration.
func (c *ResolverConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Remote: RemoteConfig{
			Timeout:    10 * time.Second,
			QueryLimit: resolver.DefaultQueryLimit,
		},
		Cache: CacheConfig{
			NoteTTL: resolver.DefaultTTL,
			ListTTL: resolver.DefaultTTL,
		},
		Resolver: ResolverConfig{
			MaxDepth:    resolver.DefaultMaxDepth,
			Concurrency: resolver.DefaultConcurrency,
		},
	}
}
