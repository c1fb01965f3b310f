package operator

import (
	"context"
	"strconv"

	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/domain/ports"
	"github.com/reglet-dev/operator-host/internal/gil"
)

// loop dispatches events until the handler asks to stop, the upstream
// channel closes or a cycle fails.
func (s *Session) loop(ctx context.Context, inst ports.HandlerInstance) (entities.StopReason, error) {
	for {
		ev, ok, err := s.receive(ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			return entities.InputsClosed, nil
		}

		status, err := s.dispatch(ctx, inst, ev)
		if err != nil {
			return 0, err
		}

		switch status {
		case entities.StatusStop:
			return entities.ExplicitStop, nil
		case entities.StatusStopAll:
			return entities.ExplicitStopAll, nil
		}
	}
}

// receive waits for the next event without holding the execution lock.
func (s *Session) receive(ctx context.Context) (entities.IncomingEvent, bool, error) {
	select {
	case ev, ok := <-s.inputs:
		return ev, ok, nil
	case <-ctx.Done():
		return entities.IncomingEvent{}, false, ctx.Err()
	}
}

func (s *Session) dispatch(ctx context.Context, inst ports.HandlerInstance, ev entities.IncomingEvent) (entities.HandlerStatus, error) {
	ev, end := s.propagate(ctx, ev)
	defer end()

	bridge := NewBridge(s.outbox, s.descriptor, s.logger)

	var code int64
	err := gil.Do(func() error {
		var dispatchErr error
		code, dispatchErr = inst.Dispatch(ctx, ev, bridge)
		return dispatchErr
	})
	if err != nil {
		return 0, err
	}

	status, ok := entities.ResolveStatus(code)
	if !ok {
		return 0, &domainerrors.InvalidHandlerReturnError{Value: strconv.FormatInt(code, 10)}
	}

	s.logger.DebugContext(ctx, "event dispatched", "type", string(ev.Type), "id", ev.ID, "status", status.String())
	return status, nil
}

// propagate rewrites the trace context of an input to a child span of the
// incoming one. The returned func ends the span.
func (s *Session) propagate(ctx context.Context, ev entities.IncomingEvent) (entities.IncomingEvent, func()) {
	if ev.Type != entities.IncomingInput {
		return ev, func() {}
	}

	if s.tracer == nil {
		ev.Metadata.Parameters.OpenTelemetryContext = ""
		return ev, func() {}
	}

	parent := s.tracer.Deserialize(ctx, ev.Metadata.Parameters.OpenTelemetryContext)
	spanCtx, end := s.tracer.StartSpan(parent, ev.ID)
	ev.Metadata.Parameters.OpenTelemetryContext = s.tracer.Serialize(spanCtx)
	return ev, end
}
