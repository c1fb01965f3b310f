package operator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/reglet-dev/operator-host/application/validation"
	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
)

// guestMetadata is the accepted shape of metadata passed by guest code.
type guestMetadata struct {
	OpenTelemetryContext string `json:"open_telemetry_context" validate:"omitempty,printascii"`
	Watermark            uint64 `json:"watermark"`
	Deadline             uint64 `json:"deadline"`
}

// ParseMetadata converts a guest metadata mapping into Metadata. Unknown keys
// are ignored; known keys with the wrong type are an error. A nil map yields
// empty metadata.
func ParseMetadata(m map[string]any) (entities.Metadata, error) {
	if len(m) == 0 {
		return entities.Metadata{}, nil
	}

	var gm guestMetadata
	if err := validation.ValidateMap(m, &gm); err != nil {
		return entities.Metadata{}, err
	}

	return entities.Metadata{Parameters: entities.MetadataParameters{
		OpenTelemetryContext: gm.OpenTelemetryContext,
		Watermark:            gm.Watermark,
		Deadline:             gm.Deadline,
	}}, nil
}

// Bridge implements ports.OutputSink for one dispatch cycle. It turns guest
// output calls into Output events on the session outbox.
type Bridge struct {
	outbox     *Outbox
	descriptor *entities.OperatorDescriptor
	logger     *slog.Logger
}

// NewBridge creates a Bridge that forwards to outbox.
func NewBridge(outbox *Outbox, descriptor *entities.OperatorDescriptor, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{outbox: outbox, descriptor: descriptor, logger: logger}
}

// SendOutput validates and forwards one output. The payload is copied before
// it leaves the call, so guest buffers may be reused afterwards. It blocks
// until the outbox accepts the event.
func (b *Bridge) SendOutput(ctx context.Context, outputID string, data []byte, metadata map[string]any) error {
	if b.descriptor != nil && !b.descriptor.DeclaresOutput(outputID) {
		return &domainerrors.OutputError{OutputID: outputID, Reason: "undeclared output"}
	}

	md, err := ParseMetadata(metadata)
	if err != nil {
		b.logger.WarnContext(ctx, "Could not parse metadata.", "output_id", outputID, "error", err)
		return &domainerrors.OutputError{OutputID: outputID, Reason: "metadata", Err: err}
	}

	ev := entities.NewOutput(outputID, md, bytes.Clone(data))
	if err := b.outbox.Send(ctx, ev); err != nil {
		b.logger.WarnContext(ctx, "failed to send output to runtime", "output_id", outputID, "error", err)
		reason := "send"
		if errors.Is(err, ErrOutboxClosed) {
			reason = "closed"
		}
		return &domainerrors.OutputError{OutputID: outputID, Reason: reason, Err: err}
	}
	return nil
}
