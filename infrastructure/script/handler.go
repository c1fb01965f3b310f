package script

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/dop251/goja"
	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/domain/ports"
)

// handler is one live Operator instance and the goja runtime that owns it.
type handler struct {
	vm         *goja.Runtime
	instance   *goja.Object
	uint8Array goja.Value
	logger     *slog.Logger

	// arena holds the buffers created for the current dispatch.
	arena []goja.ArrayBuffer
}

// Dispatch implements ports.HandlerInstance.
func (h *handler) Dispatch(ctx context.Context, ev entities.IncomingEvent, out ports.OutputSink) (int64, error) {
	defer h.release()

	onEvent, ok := goja.AssertFunction(h.instance.Get("on_event"))
	if !ok {
		return 0, &domainerrors.GuestError{Op: "on_event", Message: "TypeError: Operator.on_event is not a function"}
	}

	event, err := h.eventObject(ev)
	if err != nil {
		return 0, err
	}

	res, err := onEvent(h.instance, event, h.vm.ToValue(h.sendOutput(ctx, out)))
	if err != nil {
		return 0, guestError("on_event", err)
	}
	return extractStatus(res)
}

// Close implements ports.HandlerInstance. The optional drop() method is
// called before the runtime is released.
func (h *handler) Close(context.Context) error {
	if h.vm == nil {
		return nil
	}
	defer func() {
		h.instance = nil
		h.vm = nil
	}()

	drop, ok := goja.AssertFunction(h.instance.Get("drop"))
	if !ok {
		return nil
	}
	if _, err := drop(h.instance); err != nil {
		return guestError("drop", err)
	}
	return nil
}

func (h *handler) release() {
	for _, buf := range h.arena {
		buf.Detach()
	}
	h.arena = h.arena[:0]
}

func (h *handler) eventObject(ev entities.IncomingEvent) (*goja.Object, error) {
	obj := h.vm.NewObject()
	_ = obj.Set("type", string(ev.Type))
	if ev.ID != "" {
		_ = obj.Set("id", ev.ID)
	}

	if ev.Type != entities.IncomingInput {
		return obj, nil
	}

	buf := h.vm.NewArrayBuffer(bytes.Clone(ev.Data))
	h.arena = append(h.arena, buf)
	value, err := h.vm.New(h.uint8Array, h.vm.ToValue(buf))
	if err != nil {
		return nil, &domainerrors.InitError{Stage: "event", Err: err}
	}
	_ = obj.Set("value", value)

	md := h.vm.NewObject()
	for k, v := range ev.Metadata.ToMap() {
		_ = md.Set(k, v)
	}
	_ = obj.Set("metadata", md)
	return obj, nil
}

// sendOutput builds the send_output(id, data, metadata?) callback for one
// dispatch. Failures are thrown into guest code as exceptions.
func (h *handler) sendOutput(ctx context.Context, out ports.OutputSink) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		id, ok := call.Argument(0).Export().(string)
		if !ok {
			panic(h.vm.NewTypeError("send_output: output id must be a string"))
		}

		data, err := h.exportBytes(call.Argument(1))
		if err != nil {
			panic(h.vm.NewTypeError("send_output: " + err.Error()))
		}

		var metadata map[string]any
		if arg := call.Argument(2); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			m, ok := arg.Export().(map[string]any)
			if !ok {
				panic(h.vm.NewTypeError("send_output: metadata must be an object"))
			}
			metadata = m
		}

		if err := out.SendOutput(ctx, id, data, metadata); err != nil {
			panic(h.vm.NewGoError(err))
		}
		return goja.Undefined()
	}
}

// exportBytes accepts an ArrayBuffer, any typed array or DataView, or an
// array of byte values.
func (h *handler) exportBytes(v goja.Value) ([]byte, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, errors.New("data is required")
	}

	switch x := v.Export().(type) {
	case goja.ArrayBuffer:
		return x.Bytes(), nil
	case []byte:
		return x, nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, errors.New("data must be an ArrayBuffer, a typed array or an array of bytes")
	}

	if bv := obj.Get("buffer"); bv != nil && !goja.IsUndefined(bv) {
		buf, ok := bv.Export().(goja.ArrayBuffer)
		if !ok {
			return nil, errors.New("data has an invalid buffer")
		}
		b := buf.Bytes()
		off := intProperty(obj, "byteOffset", 0)
		n := intProperty(obj, "byteLength", int64(len(b))-off)
		if off < 0 || n < 0 || off+n > int64(len(b)) {
			return nil, errors.New("data view is out of range")
		}
		return b[off : off+n], nil
	}

	var raw []byte
	if err := h.vm.ExportTo(v, &raw); err != nil {
		return nil, errors.New("data must be an ArrayBuffer, a typed array or an array of bytes")
	}
	return raw, nil
}

func intProperty(obj *goja.Object, name string, def int64) int64 {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return def
	}
	return v.ToInteger()
}

// extractStatus reads the integer `value` of a DoraStatus-like result.
func extractStatus(res goja.Value) (int64, error) {
	obj, ok := res.(*goja.Object)
	if !ok {
		return 0, &domainerrors.InvalidHandlerReturnError{Reason: "on_event must have enum return value"}
	}
	value := obj.Get("value")
	if value == nil || goja.IsUndefined(value) {
		return 0, &domainerrors.InvalidHandlerReturnError{Reason: "on_event must have enum return value"}
	}

	switch n := value.Export().(type) {
	case int64:
		return n, nil
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), nil
		}
	}
	return 0, &domainerrors.InvalidHandlerReturnError{Reason: "on_event has invalid return value"}
}
