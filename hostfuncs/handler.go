package hostfuncs

import (
	"context"
	"fmt"

	"github.com/reglet-dev/operator-host/wireformat"
)

// HostFunc is a typed host function. A response that encodes as JSON null
// (a nil pointer, map or slice) is reported to the guest as success without
// a payload.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// ByteHandler accepts a JSON request and returns a JSON response. A nil
// response means success without a payload.
type ByteHandler func(context.Context, []byte) ([]byte, error)

var jsonNull = []byte("null")

// NewJSONHandler wraps a typed HostFunc into a ByteHandler. Malformed requests
// are answered with a VALIDATION_ERROR response rather than a Go error.
func NewJSONHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := wireformat.Unmarshal(payload, &req); err != nil {
			return NewValidationError(fmt.Sprintf("invalid %s request: %v", functionName(ctx), err)).ToJSON(), nil
		}

		respBytes, err := wireformat.Marshal(fn(ctx, req))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		if string(respBytes) == string(jsonNull) {
			return nil, nil
		}
		return respBytes, nil
	}
}

func functionName(ctx context.Context) string {
	if hc, ok := ctx.(HostContext); ok {
		return hc.FunctionName()
	}
	return "host function"
}
