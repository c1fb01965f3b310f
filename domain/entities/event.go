package entities

// IncomingEventType tags the variant of an IncomingEvent.
type IncomingEventType string

const (
	// IncomingInput carries a payload for one of the operator's inputs.
	IncomingInput IncomingEventType = "INPUT"

	// IncomingInputClosed reports that a single input will deliver no more data.
	IncomingInputClosed IncomingEventType = "INPUT_CLOSED"

	// IncomingStop asks the operator to stop.
	IncomingStop IncomingEventType = "STOP"
)

// IncomingEvent is one event received from the upstream channel.
// The end of the upstream channel itself is not an event; it is signalled by
// closing the channel.
type IncomingEvent struct {
	Type     IncomingEventType
	ID       string
	Data     []byte
	Metadata Metadata
}

// NewInput returns an Input event.
func NewInput(id string, data []byte, metadata Metadata) IncomingEvent {
	return IncomingEvent{Type: IncomingInput, ID: id, Data: data, Metadata: metadata}
}

// NewInputClosed returns an InputClosed event for the given input.
func NewInputClosed(id string) IncomingEvent {
	return IncomingEvent{Type: IncomingInputClosed, ID: id}
}

// NewStop returns a Stop event.
func NewStop() IncomingEvent {
	return IncomingEvent{Type: IncomingStop}
}

// OutgoingEventType tags the variant of an OutgoingEvent.
type OutgoingEventType string

const (
	// OutgoingOutput is data emitted by the handler.
	OutgoingOutput OutgoingEventType = "OUTPUT"

	// OutgoingFinished ends a session that stopped without failure.
	OutgoingFinished OutgoingEventType = "FINISHED"

	// OutgoingError ends a session that failed in a controlled way.
	OutgoingError OutgoingEventType = "ERROR"

	// OutgoingAborted ends a session whose code ran off the rails.
	OutgoingAborted OutgoingEventType = "ABORTED"
)

// OutgoingEvent is one event sent from a session to the host.
//
// Only the fields of the tagged variant are set:
//   - Output: OutputID, Metadata, Data
//   - Finished: Reason
//   - Error: Err
//   - Aborted: Info, Stack
type OutgoingEvent struct {
	Err      error
	Type     OutgoingEventType
	OutputID string
	Info     string
	Data     []byte
	Stack    []byte
	Metadata Metadata
	Reason   StopReason
}

// NewOutput returns an Output event.
func NewOutput(outputID string, metadata Metadata, data []byte) OutgoingEvent {
	return OutgoingEvent{Type: OutgoingOutput, OutputID: outputID, Metadata: metadata, Data: data}
}

// NewFinished returns a Finished event.
func NewFinished(reason StopReason) OutgoingEvent {
	return OutgoingEvent{Type: OutgoingFinished, Reason: reason}
}

// NewError returns an Error event.
func NewError(err error) OutgoingEvent {
	return OutgoingEvent{Type: OutgoingError, Err: err}
}

// NewAborted returns an Aborted event.
func NewAborted(info string, stack []byte) OutgoingEvent {
	return OutgoingEvent{Type: OutgoingAborted, Info: info, Stack: stack}
}

// IsTerminal reports whether the event ends a session.
func (e OutgoingEvent) IsTerminal() bool {
	switch e.Type {
	case OutgoingFinished, OutgoingError, OutgoingAborted:
		return true
	default:
		return false
	}
}
