package entities

import "fmt"

// HandlerStatus is the code a handler returns from each invocation.
type HandlerStatus int

const (
	// StatusContinue keeps the event loop running.
	StatusContinue HandlerStatus = 0

	// StatusStop stops this operator.
	StatusStop HandlerStatus = 1

	// StatusStopAll stops this operator and asks the host to stop the dataflow.
	StatusStopAll HandlerStatus = 2
)

// ResolveStatus maps a raw code onto one of the three valid statuses.
func ResolveStatus(code int64) (HandlerStatus, bool) {
	switch code {
	case int64(StatusContinue):
		return StatusContinue, true
	case int64(StatusStop):
		return StatusStop, true
	case int64(StatusStopAll):
		return StatusStopAll, true
	default:
		return 0, false
	}
}

func (s HandlerStatus) String() string {
	switch s {
	case StatusContinue:
		return "CONTINUE"
	case StatusStop:
		return "STOP"
	case StatusStopAll:
		return "STOP_ALL"
	default:
		return fmt.Sprintf("HandlerStatus(%d)", int(s))
	}
}

// StopReason classifies why an event loop ended without failure.
type StopReason int

const (
	// ExplicitStop means the handler returned StatusStop.
	ExplicitStop StopReason = iota + 1

	// ExplicitStopAll means the handler returned StatusStopAll.
	ExplicitStopAll

	// InputsClosed means the upstream channel was closed.
	InputsClosed
)

func (r StopReason) String() string {
	switch r {
	case ExplicitStop:
		return "explicit_stop"
	case ExplicitStopAll:
		return "explicit_stop_all"
	case InputsClosed:
		return "inputs_closed"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// ParseStopReason is the inverse of StopReason.String.
func ParseStopReason(s string) (StopReason, error) {
	for _, r := range []StopReason{ExplicitStop, ExplicitStopAll, InputsClosed} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown stop reason %q", s)
}
