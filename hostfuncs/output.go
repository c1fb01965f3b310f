package hostfuncs

import (
	"context"

	"github.com/reglet-dev/operator-host/wireformat"
)

// SendOutput forwards a send_output request to the sink of the current
// dispatch. It returns nil on success.
func SendOutput(ctx context.Context, req wireformat.SendOutputWire) *ErrorResponse {
	if req.ID == "" {
		resp := NewValidationError("send_output requires an output id")
		return &resp
	}

	sink, ok := OutputSinkFrom(ctx)
	if !ok {
		resp := NewInternalError("send_output called outside of on_event")
		return &resp
	}

	if err := sink.SendOutput(ctx, req.ID, req.Data, req.Metadata); err != nil {
		resp := NewOutputError(err)
		return &resp
	}
	return nil
}
