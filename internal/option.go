package internal

import "github.com/aldric/tavle/internal/hooks"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	listeners []hooks.Listener
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithListener registers a workspace hook listener before startup, so
// it observes events from the very first restored note.
func WithListener(l hooks.Listener) Option {
	return func(a *application) {
		a.listeners = append(a.listeners, l)
	}
}
