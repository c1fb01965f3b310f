// Package wireformat defines the JSON wire format of operator events. It is
// used for the line-delimited event stream of the CLI and for the payloads
// exchanged with WASM operators. These types must remain stable and backward
// compatible as they define the ABI contract.
package wireformat

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
)

// ErrorDetail is the structured error carried by ERROR events.
type ErrorDetail = entities.ErrorDetail

// MetadataWire is the flat wire form of entities.Metadata.
type MetadataWire struct {
	OpenTelemetryContext string `json:"open_telemetry_context,omitempty"`
	Watermark            uint64 `json:"watermark,omitempty"`
	Deadline             uint64 `json:"deadline,omitempty"`
}

// IncomingEventWire is the JSON wire format of an event delivered to an operator.
type IncomingEventWire struct {
	Metadata *MetadataWire `json:"metadata,omitempty"`
	Type     string        `json:"type"`
	ID       string        `json:"id,omitempty"`
	Data     []byte        `json:"data,omitempty"`
}

// OutgoingEventWire is the JSON wire format of an event sent by a session.
type OutgoingEventWire struct {
	Metadata *MetadataWire `json:"metadata,omitempty"`
	Error    *ErrorDetail  `json:"error,omitempty"`
	Type     string        `json:"type"`
	ID       string        `json:"id,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Info     string        `json:"info,omitempty"`
	Data     []byte        `json:"data,omitempty"`
	Stack    []byte        `json:"stack,omitempty"`
}

// SendOutputWire is the request a WASM operator passes to the send_output
// host function.
type SendOutputWire struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	ID       string         `json:"id"`
	Data     []byte         `json:"data"`
}

// LogMessageWire is the request a WASM operator passes to the log_message
// host function.
type LogMessageWire struct {
	Level   string        `json:"level"`
	Message string        `json:"message"`
	Attrs   []LogAttrWire `json:"attrs,omitempty"`
}

// LogAttrWire is one structured attribute of a guest log message. Type is
// one of string, int64, uint64, bool, float64, time, duration, error, json
// or any; Value is its string rendering.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

func metadataToWire(m entities.Metadata) *MetadataWire {
	return &MetadataWire{
		OpenTelemetryContext: m.Parameters.OpenTelemetryContext,
		Watermark:            m.Parameters.Watermark,
		Deadline:             m.Parameters.Deadline,
	}
}

func metadataFromWire(w *MetadataWire) entities.Metadata {
	if w == nil {
		return entities.Metadata{}
	}
	return entities.Metadata{Parameters: entities.MetadataParameters{
		OpenTelemetryContext: w.OpenTelemetryContext,
		Watermark:            w.Watermark,
		Deadline:             w.Deadline,
	}}
}

// IncomingToWire converts an IncomingEvent to its wire form.
func IncomingToWire(ev entities.IncomingEvent) IncomingEventWire {
	w := IncomingEventWire{Type: string(ev.Type), ID: ev.ID}
	if ev.Type == entities.IncomingInput {
		w.Data = ev.Data
		w.Metadata = metadataToWire(ev.Metadata)
	}
	return w
}

// EncodeIncoming encodes an IncomingEvent as JSON.
func EncodeIncoming(ev entities.IncomingEvent) ([]byte, error) {
	data, err := Marshal(IncomingToWire(ev))
	if err != nil {
		return nil, &domainerrors.WireFormatError{Operation: "encode", Type: "incoming event", Err: err}
	}
	return data, nil
}

// DecodeIncoming decodes a JSON IncomingEvent.
func DecodeIncoming(data []byte) (entities.IncomingEvent, error) {
	var w IncomingEventWire
	if err := Unmarshal(data, &w); err != nil {
		return entities.IncomingEvent{}, &domainerrors.WireFormatError{Operation: "decode", Type: "incoming event", Err: err}
	}

	switch entities.IncomingEventType(w.Type) {
	case entities.IncomingInput:
		if w.ID == "" {
			return entities.IncomingEvent{}, &domainerrors.WireFormatError{
				Operation: "decode", Type: "incoming event", Err: fmt.Errorf("input event without id"),
			}
		}
		return entities.NewInput(w.ID, w.Data, metadataFromWire(w.Metadata)), nil
	case entities.IncomingInputClosed:
		return entities.NewInputClosed(w.ID), nil
	case entities.IncomingStop:
		return entities.NewStop(), nil
	default:
		return entities.IncomingEvent{}, &domainerrors.WireFormatError{
			Operation: "decode", Type: "incoming event", Err: fmt.Errorf("unknown event type %q", w.Type),
		}
	}
}

// OutgoingToWire converts an OutgoingEvent to its wire form.
func OutgoingToWire(ev entities.OutgoingEvent) OutgoingEventWire {
	w := OutgoingEventWire{Type: string(ev.Type)}
	switch ev.Type {
	case entities.OutgoingOutput:
		w.ID = ev.OutputID
		w.Data = ev.Data
		w.Metadata = metadataToWire(ev.Metadata)
	case entities.OutgoingFinished:
		w.Reason = ev.Reason.String()
	case entities.OutgoingError:
		w.Error = domainerrors.ToErrorDetail(ev.Err)
	case entities.OutgoingAborted:
		w.Info = ev.Info
		w.Stack = ev.Stack
	}
	return w
}

// EncodeOutgoing encodes an OutgoingEvent as JSON.
func EncodeOutgoing(ev entities.OutgoingEvent) ([]byte, error) {
	data, err := Marshal(OutgoingToWire(ev))
	if err != nil {
		return nil, &domainerrors.WireFormatError{Operation: "encode", Type: "outgoing event", Err: err}
	}
	return data, nil
}

// DecodeOutgoing decodes a JSON OutgoingEvent. Errors are restored as
// *entities.ErrorDetail values.
func DecodeOutgoing(data []byte) (entities.OutgoingEvent, error) {
	var w OutgoingEventWire
	if err := Unmarshal(data, &w); err != nil {
		return entities.OutgoingEvent{}, &domainerrors.WireFormatError{Operation: "decode", Type: "outgoing event", Err: err}
	}

	switch entities.OutgoingEventType(w.Type) {
	case entities.OutgoingOutput:
		return entities.NewOutput(w.ID, metadataFromWire(w.Metadata), w.Data), nil
	case entities.OutgoingFinished:
		reason, err := entities.ParseStopReason(w.Reason)
		if err != nil {
			return entities.OutgoingEvent{}, &domainerrors.WireFormatError{Operation: "decode", Type: "outgoing event", Err: err}
		}
		return entities.NewFinished(reason), nil
	case entities.OutgoingError:
		if w.Error == nil {
			return entities.NewError(entities.NewErrorDetail("internal", "unknown error")), nil
		}
		return entities.NewError(w.Error), nil
	case entities.OutgoingAborted:
		return entities.NewAborted(w.Info, w.Stack), nil
	default:
		return entities.OutgoingEvent{}, &domainerrors.WireFormatError{
			Operation: "decode", Type: "outgoing event", Err: fmt.Errorf("unknown event type %q", w.Type),
		}
	}
}
