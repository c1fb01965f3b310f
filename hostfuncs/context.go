package hostfuncs

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/operator-host/domain/ports"
)

// HostContext is the context handed to host functions. It carries the name
// of the invoked function for middleware and error messages.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string
}

type hostContext struct {
	context.Context
	funcName string
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

// HostContextFrom extracts a HostContext from a context.Context.
// If the context is already a HostContext, it is returned directly.
// Otherwise, a new HostContext is created wrapping the given context.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok {
		return hc
	}
	return &hostContext{Context: ctx, funcName: funcName}
}

type contextKey struct {
	name string
}

var (
	outputSinkKey = &contextKey{name: "output_sink"}
	loggerKey     = &contextKey{name: "logger"}
)

// WithOutputSink attaches the sink of the current dispatch to ctx.
func WithOutputSink(ctx context.Context, sink ports.OutputSink) context.Context {
	return context.WithValue(ctx, outputSinkKey, sink)
}

// OutputSinkFrom returns the sink attached by WithOutputSink.
func OutputSinkFrom(ctx context.Context) (ports.OutputSink, bool) {
	sink, ok := ctx.Value(outputSinkKey).(ports.OutputSink)
	return sink, ok && sink != nil
}

// WithLogger attaches the operator logger to ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFrom returns the logger attached by WithLogger, or slog.Default().
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
