package operator

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/domain/ports"
	"github.com/reglet-dev/operator-host/internal/gil"
)

// sessionConfig holds the optional collaborators of a Session.
type sessionConfig struct {
	tracer   ports.Tracer
	fetcher  ports.Fetcher
	resolver *Resolver
	logger   *slog.Logger
	ready    chan<- struct{}
	id       string
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		logger: slog.Default(),
	}
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

// WithTracer enables trace-context propagation. Without a tracer the
// trace-context field of every input is emptied before dispatch.
func WithTracer(tracer ports.Tracer) SessionOption {
	return func(c *sessionConfig) {
		c.tracer = tracer
	}
}

// WithFetcher sets the fetcher used to download URL sources.
func WithFetcher(fetcher ports.Fetcher) SessionOption {
	return func(c *sessionConfig) {
		c.fetcher = fetcher
	}
}

// WithResolver replaces the source resolver. It takes precedence over WithFetcher.
func WithResolver(resolver *Resolver) SessionOption {
	return func(c *sessionConfig) {
		c.resolver = resolver
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReady registers a channel that is closed once the handler is loaded
// and the event loop is about to start. It is never closed if loading fails.
func WithReady(ready chan<- struct{}) SessionOption {
	return func(c *sessionConfig) {
		c.ready = ready
	}
}

// WithSessionID sets the id used to correlate session logs.
func WithSessionID(id string) SessionOption {
	return func(c *sessionConfig) {
		c.id = id
	}
}

// Session hosts one operator from source resolution to its terminal event.
type Session struct {
	descriptor *entities.OperatorDescriptor
	runtime    ports.GuestRuntime
	inputs     <-chan entities.IncomingEvent
	outbox     *Outbox
	resolver   *Resolver
	tracer     ports.Tracer
	logger     *slog.Logger
	ready      chan<- struct{}
	readyOnce  sync.Once
	id         string

	// path is the canonical source path once resolution succeeded.
	path string
}

// NewSession creates a Session reading events from inputs and reporting to outbox.
func NewSession(
	descriptor *entities.OperatorDescriptor,
	rt ports.GuestRuntime,
	inputs <-chan entities.IncomingEvent,
	outbox *Outbox,
	opts ...SessionOption,
) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	logger := cfg.logger.With(
		"session_id", cfg.id,
		"node_id", descriptor.NodeID,
		"operator_id", descriptor.OperatorID,
	)

	resolver := cfg.resolver
	if resolver == nil {
		resolver = NewResolver(cfg.fetcher, WithResolverLogger(logger))
	}

	return &Session{
		descriptor: descriptor,
		runtime:    rt,
		inputs:     inputs,
		outbox:     outbox,
		resolver:   resolver,
		tracer:     cfg.tracer,
		logger:     logger,
		ready:      cfg.ready,
		id:         cfg.id,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Run executes the session and reports exactly one terminal event. It never
// panics and has no return value: every outcome is an outbox event.
func (s *Session) Run(ctx context.Context) {
	reason, err := s.contain(ctx)

	var ev entities.OutgoingEvent
	var abort *domainerrors.AbortError
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "operator finished", "reason", reason.String())
		ev = entities.NewFinished(reason)
	case errors.As(err, &abort):
		s.logger.ErrorContext(ctx, "operator aborted", "info", abort.Info)
		ev = entities.NewAborted(abort.Info, abort.Stack)
	default:
		s.logger.ErrorContext(ctx, "operator failed", "error", err)
		ev = entities.NewError(err)
	}

	// Never blocks: the session goroutine exits even if nobody reads.
	if sendErr := s.outbox.Finish(ev); sendErr != nil {
		s.logger.WarnContext(ctx, "failed to report operator stop", "event", string(ev.Type), "error", sendErr)
	}
}

// contain converts panics into AbortError and attributes every other failure
// to the operator source.
func (s *Session) contain(ctx context.Context) (reason entities.StopReason, err error) {
	defer func() {
		if r := recover(); r != nil {
			reason = 0
			err = domainerrors.NewAbortError(r, debug.Stack())
		}
	}()

	reason, err = s.run(ctx)
	if err != nil {
		var abort *domainerrors.AbortError
		if errors.As(err, &abort) {
			return 0, abort
		}
		return 0, &domainerrors.OperatorError{Kind: string(s.descriptor.Kind()), Source: s.source(), Err: err}
	}
	return reason, nil
}

func (s *Session) source() string {
	if s.path != "" {
		return s.path
	}
	return s.descriptor.Source.String()
}

func (s *Session) run(ctx context.Context) (entities.StopReason, error) {
	path, err := s.resolver.Resolve(ctx, s.descriptor)
	if err != nil {
		return 0, err
	}
	s.path = path

	var inst ports.HandlerInstance
	err = gil.Do(func() error {
		var loadErr error
		inst, loadErr = s.runtime.Load(ctx, ports.LoadRequest{
			Logger:      s.logger,
			Path:        path,
			SearchPaths: s.descriptor.SearchPaths,
		})
		return loadErr
	})
	if err != nil {
		return 0, err
	}
	defer s.teardown(ctx, inst)

	s.logger.DebugContext(ctx, "operator loaded", "path", path, "runtime", string(s.runtime.Kind()))
	s.signalReady()

	return s.loop(ctx, inst)
}

func (s *Session) signalReady() {
	if s.ready == nil {
		return
	}
	s.readyOnce.Do(func() { close(s.ready) })
}

// teardown destroys the handler under the execution lock. Failures are
// logged and never change the session outcome.
func (s *Session) teardown(ctx context.Context, inst ports.HandlerInstance) {
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "panic while dropping operator", "panic", r)
		}
	}()

	if err := gil.Do(func() error { return inst.Close(ctx) }); err != nil {
		s.logger.WarnContext(ctx, "failed to drop operator", "error", err)
	}
}
