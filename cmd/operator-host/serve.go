package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/reglet-dev/operator-host/host"
	"github.com/reglet-dev/operator-host/wireformat"
)

// serve runs the operator, feeding it events read from stream and writing
// back every outgoing event. It returns the terminal event.
func serve(ctx context.Context, runner *host.Runner, d *entities.OperatorDescriptor, stream eventStream, logger *slog.Logger) (entities.OutgoingEvent, error) {
	inputs := make(chan entities.IncomingEvent)
	h, err := runner.Start(ctx, d, inputs)
	if err != nil {
		return entities.OutgoingEvent{}, err
	}
	defer h.Close()

	go pumpInputs(ctx, stream, inputs, h.Done(), logger)

	for ev := range h.Events() {
		data, err := wireformat.EncodeOutgoing(ev)
		if err != nil {
			logger.Error("failed to encode event", "type", ev.Type, "error", err)
		} else if err := stream.WriteEvent(data); err != nil {
			logger.Warn("failed to write event", "type", ev.Type, "error", err)
		}
		if ev.IsTerminal() {
			return ev, nil
		}
	}
	return entities.OutgoingEvent{}, errors.New("event stream ended without a terminal event")
}

// pumpInputs decodes incoming events until the stream ends, then closes
// inputs. Malformed events are logged and skipped.
func pumpInputs(ctx context.Context, stream eventStream, inputs chan<- entities.IncomingEvent, done <-chan struct{}, logger *slog.Logger) {
	defer close(inputs)
	for {
		data, err := stream.ReadEvent()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("failed to read event", "error", err)
			}
			return
		}
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		ev, err := wireformat.DecodeIncoming(data)
		if err != nil {
			logger.Warn("skipping malformed event", "error", err)
			continue
		}

		select {
		case inputs <- ev:
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// exitError maps a terminal event to the command result.
func exitError(ev entities.OutgoingEvent) error {
	switch ev.Type {
	case entities.OutgoingFinished:
		return nil
	case entities.OutgoingAborted:
		return fmt.Errorf("operator aborted: %s", ev.Info)
	default:
		return fmt.Errorf("operator failed: %w", ev.Err)
	}
}
