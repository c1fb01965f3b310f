package host

import (
	"log/slog"

	"github.com/reglet-dev/operator-host/domain/ports"
	"github.com/reglet-dev/operator-host/host/registry"
)

// DefaultOutboxCapacity is the number of outgoing events buffered per session.
const DefaultOutboxCapacity = 64

type runnerConfig struct {
	runtimes       *registry.Registry
	tracer         ports.Tracer
	fetcher        ports.Fetcher
	logger         *slog.Logger
	outboxCapacity int
}

func defaultRunnerConfig() runnerConfig {
	return runnerConfig{
		logger:         slog.Default(),
		outboxCapacity: DefaultOutboxCapacity,
	}
}

// Option defines a functional option for configuring the Runner.
type Option func(*runnerConfig)

// WithRuntimes replaces the default runtime registry (script and wasm).
func WithRuntimes(runtimes *registry.Registry) Option {
	return func(c *runnerConfig) {
		c.runtimes = runtimes
	}
}

// WithTracer sets the tracer used by descriptors with tracing enabled.
// Defaults to the global OpenTelemetry provider.
func WithTracer(tracer ports.Tracer) Option {
	return func(c *runnerConfig) {
		c.tracer = tracer
	}
}

// WithFetcher sets the fetcher for URL sources. Defaults to an HTTP fetcher.
func WithFetcher(fetcher ports.Fetcher) Option {
	return func(c *runnerConfig) {
		c.fetcher = fetcher
	}
}

// WithLogger sets the logger passed to sessions and runtimes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runnerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOutboxCapacity sets the outgoing event buffer of each session.
func WithOutboxCapacity(n int) Option {
	return func(c *runnerConfig) {
		if n >= 0 {
			c.outboxCapacity = n
		}
	}
}
