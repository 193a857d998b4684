package internal

import "github.com/starford/memoirs/internal/resolver"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	fetcher resolver.Fetcher
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithFetcher replaces the Memos HTTP client.
func WithFetcher(f resolver.Fetcher) Option {
	return func(a *application) {
		a.fetcher = f
	}
}
