package ports

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/operator-host/domain/entities"
)

// OutputSink receives the outputs a handler emits during one dispatch.
type OutputSink interface {
	// SendOutput forwards one output. Errors are local to the call and are
	// surfaced back into guest code.
	SendOutput(ctx context.Context, outputID string, data []byte, metadata map[string]any) error
}

// LoadRequest describes the module a GuestRuntime must load.
type LoadRequest struct {
	Logger *slog.Logger

	// Path is absolute and canonical.
	Path string

	// SearchPaths are additional module folders.
	SearchPaths []string
}

// GuestRuntime brings handler instances into existence.
// Callers hold the execution lock for the whole Load call.
type GuestRuntime interface {
	Kind() entities.RuntimeKind
	Load(ctx context.Context, req LoadRequest) (HandlerInstance, error)
}

// HandlerInstance is one live guest handler. It is owned by a single session
// goroutine and every method is called with the execution lock held.
type HandlerInstance interface {
	// Dispatch hands one event to the handler and returns the raw status
	// code. Guest allocations made for the call are released before it returns.
	Dispatch(ctx context.Context, event entities.IncomingEvent, out OutputSink) (int64, error)

	// Close destroys the handler. It is called exactly once.
	Close(ctx context.Context) error
}
