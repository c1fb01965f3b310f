package wazero

import (
	"context"
	"errors"
	"log/slog"

	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/reglet-dev/operator-host/domain/ports"
	"github.com/reglet-dev/operator-host/hostfuncs"
	"github.com/reglet-dev/operator-host/wireformat"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

type handler struct {
	rt         wazero.Runtime
	mod        api.Module
	onEvent    api.Function
	allocate   api.Function
	deallocate api.Function
	drop       api.Function
	logger     *slog.Logger
}

// Dispatch implements ports.HandlerInstance.
func (h *handler) Dispatch(ctx context.Context, event entities.IncomingEvent, out ports.OutputSink) (int64, error) {
	if h.mod == nil {
		return 0, errors.New("handler is closed")
	}

	payload, err := wireformat.EncodeIncoming(event)
	if err != nil {
		return 0, err
	}

	a := &arena{}
	ctx = withArena(ctx, a)
	ctx = hostfuncs.WithOutputSink(ctx, out)
	ctx = hostfuncs.WithLogger(ctx, h.logger)
	defer h.release(ctx, a)

	results, err := h.allocate.Call(ctx, uint64(len(payload)))
	if err != nil {
		return 0, callError(allocateExport, err)
	}
	ptr := uint32(results[0])    //nolint:gosec // G115: WASM32 pointers are always 32-bit
	size := uint32(len(payload)) //nolint:gosec // G115: events are far below 4GiB
	a.track(ptr, size)
	if !h.mod.Memory().Write(ptr, payload) {
		return 0, callError(onEventExport, errors.New("event does not fit in guest memory"))
	}

	results, err = h.onEvent.Call(ctx, uint64(ptr), uint64(size))
	if err != nil {
		return 0, callError(onEventExport, err)
	}
	return int64(int32(uint32(results[0]))), nil //nolint:gosec // G115: i32 status
}

// release hands host allocations back to the guest when it exports deallocate.
func (h *handler) release(ctx context.Context, a *arena) {
	if h.deallocate == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, alloc := range a.allocs {
		if _, err := h.deallocate.Call(ctx, uint64(alloc.ptr), uint64(alloc.size)); err != nil {
			h.logger.Debug("guest deallocate failed", "ptr", alloc.ptr, "size", alloc.size, "error", err)
			return
		}
	}
}

// Close implements ports.HandlerInstance.
func (h *handler) Close(ctx context.Context) error {
	if h.rt == nil {
		return nil
	}
	rt := h.rt
	h.rt, h.mod = nil, nil

	var dropErr error
	if h.drop != nil {
		if _, err := h.drop.Call(ctx); err != nil {
			dropErr = callError("drop", err)
		}
	}
	if err := rt.Close(ctx); err != nil && dropErr == nil {
		return err
	}
	return dropErr
}
