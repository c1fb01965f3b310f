package host

import (
	"context"
	"fmt"
	"runtime"

	"github.com/reglet-dev/operator-host/application/operator"
	"github.com/reglet-dev/operator-host/application/validation"
	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/reglet-dev/operator-host/host/registry"
	"github.com/reglet-dev/operator-host/infrastructure/fetch"
	"github.com/reglet-dev/operator-host/infrastructure/script"
	"github.com/reglet-dev/operator-host/infrastructure/tracing"
	"github.com/reglet-dev/operator-host/infrastructure/wazero"
)

// Runner starts operator sessions.
type Runner struct {
	cfg runnerConfig
}

// NewRunner creates a Runner. Without WithRuntimes it registers the script
// and wasm runtimes.
func NewRunner(opts ...Option) (*Runner, error) {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.runtimes == nil {
		cfg.runtimes = registry.NewRegistry()
		if err := cfg.runtimes.Register(script.NewRuntime(script.WithLogger(cfg.logger))); err != nil {
			return nil, fmt.Errorf("failed to register script runtime: %w", err)
		}
		if err := cfg.runtimes.Register(wazero.NewRuntime(wazero.WithLogger(cfg.logger))); err != nil {
			return nil, fmt.Errorf("failed to register wasm runtime: %w", err)
		}
	}
	if cfg.fetcher == nil {
		cfg.fetcher = fetch.NewHTTPFetcher(fetch.WithLogger(cfg.logger))
	}
	if cfg.tracer == nil {
		cfg.tracer = tracing.New()
	}

	return &Runner{cfg: cfg}, nil
}

// Start validates the descriptor and runs its session on a dedicated
// goroutine locked to its OS thread. Cancelling ctx ends a session that is
// waiting for input.
func (r *Runner) Start(ctx context.Context, d *entities.OperatorDescriptor, inputs <-chan entities.IncomingEvent) (*Handle, error) {
	if err := validation.ValidateDescriptor(d); err != nil {
		return nil, err
	}

	rt, err := r.cfg.runtimes.Lookup(d.Kind())
	if err != nil {
		return nil, err
	}

	outbox := operator.NewOutbox(r.cfg.outboxCapacity)
	ready := make(chan struct{})
	opts := []operator.SessionOption{
		operator.WithLogger(r.cfg.logger),
		operator.WithFetcher(r.cfg.fetcher),
		operator.WithReady(ready),
	}
	if d.Tracing {
		opts = append(opts, operator.WithTracer(r.cfg.tracer))
	}
	session := operator.NewSession(d, rt, inputs, outbox, opts...)

	h := &Handle{
		id:     session.ID(),
		outbox: outbox,
		ready:  ready,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		session.Run(ctx)
	}()

	r.cfg.logger.DebugContext(ctx, "operator session started",
		"session_id", h.id,
		"runtime", rt.Kind(),
		"source", d.Source.String(),
	)
	return h, nil
}

// Handle observes a running session.
type Handle struct {
	outbox *operator.Outbox
	ready  chan struct{}
	done   chan struct{}
	id     string
}

// ID returns the session id used in logs.
func (h *Handle) ID() string {
	return h.id
}

// Events returns the outgoing events. The last event of a session is
// terminal; the channel is not closed.
func (h *Handle) Events() <-chan entities.OutgoingEvent {
	return h.outbox.Events()
}

// Ready is closed once the handler is loaded. It stays open when loading fails.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}

// Done is closed when the session goroutine has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Close tells the session that nobody reads its events anymore. Pending and
// later sends fail instead of blocking.
func (h *Handle) Close() {
	h.outbox.Close()
}
