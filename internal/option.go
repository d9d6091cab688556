package internal

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger

	watch  bool
	mcp    bool
	stdin  io.Reader
	stdout io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger. The default writes JSON to stderr.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithWatch rebuilds the consolidated view whenever a category file is
// changed by another program.
func WithWatch() Option {
	return func(a *application) {
		a.watch = true
	}
}

// WithMCP serves the MCP tools on in/out until in is closed.
func WithMCP(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.mcp = true
		a.stdin = in
		a.stdout = out
	}
}
