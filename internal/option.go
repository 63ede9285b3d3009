package internal

import "github.com/starford/tessera/internal/page"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	adapter page.Adapter
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithAdapter overrides the page adapter. Used by tests to substitute a
// fake for the browser-backed implementation.
func WithAdapter(ad page.Adapter) Option {
	return func(a *application) {
		a.adapter = ad
	}
}
