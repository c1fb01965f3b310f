// Package errors provides domain-specific error types for the operator host.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/operator-host/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail. New error types only need to implement this
// interface without modifying ToErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		detail := de.ToErrorDetail()
		// Keep the outer wrapping text, it names the operator and its source.
		detail.Message = err.Error()
		return detail
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// SourceNotFoundError reports that the resolved operator source does not exist.
type SourceNotFoundError struct {
	Err  error
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("no operator source exists at %s", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SourceNotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "init", Code: "source_not_found", IsNotFound: true}
}

// FetchError reports a failed download of a remote operator source.
type FetchError struct {
	Err         error
	URL         string
	Destination string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download operator from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *FetchError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "init", Code: "fetch"}
}

// InitError reports a host-side failure while bringing a handler into existence.
// Stage names the failing step (e.g. "search_path", "canonicalize").
type InitError struct {
	Err   error
	Stage string
	Path  string
}

func (e *InitError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("operator init failed at %s for %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("operator init failed at %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *InitError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "init", Code: e.Stage}
}

// NoHandlerTypeError reports that a module lacks the handler entry symbol.
type NoHandlerTypeError struct {
	Module string
	Symbol string
}

func (e *NoHandlerTypeError) Error() string {
	return fmt.Sprintf("no `%s` handler type found in module %s", e.Symbol, e.Module)
}

// ToErrorDetail implements DetailedError.
func (e *NoHandlerTypeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "init", Code: "no_handler_type"}
}

// GuestError is an exception raised by guest code. Op names the guest call
// that raised it ("import", "construct", "on_event", "drop").
type GuestError struct {
	Err       error
	Op        string
	Message   string
	Traceback string
}

func (e *GuestError) Error() string {
	if e.Traceback != "" {
		return fmt.Sprintf("guest %s raised: %s", e.Op, e.Traceback)
	}
	return fmt.Sprintf("guest %s raised: %s", e.Op, e.Message)
}

func (e *GuestError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *GuestError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "guest", Code: e.Op}
	if e.Traceback != "" {
		detail.Stack = []byte(e.Traceback)
	}
	return detail
}

// InvalidHandlerReturnError reports a handler return value that is not a valid status.
type InvalidHandlerReturnError struct {
	// Value is the offending status code, if one could be extracted.
	Value  string
	Reason string
}

func (e *InvalidHandlerReturnError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("on_event returned invalid status %s", e.Value)
	}
	return e.Reason
}

// ToErrorDetail implements DetailedError.
func (e *InvalidHandlerReturnError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "protocol", Code: "invalid_handler_return"}
}

// OutputError is a local failure of a single output call. It is surfaced to
// guest code and does not end the session by itself.
type OutputError struct {
	Err      error
	OutputID string
	Reason   string
}

func (e *OutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to send output %q: %s: %v", e.OutputID, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to send output %q: %s", e.OutputID, e.Reason)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *OutputError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "output", Code: e.Reason}
}

// AbortError is an unrecoverable failure: a panic unwinding out of the session
// or a guest that requested process exit.
type AbortError struct {
	Info  string
	Stack []byte
}

// NewAbortError builds an AbortError from a recovered panic value.
func NewAbortError(recovered any, stack []byte) *AbortError {
	var info string
	switch v := recovered.(type) {
	case error:
		info = v.Error()
	case string:
		info = v
	default:
		info = fmt.Sprintf("%v", v)
	}
	return &AbortError{Info: info, Stack: stack}
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("operator aborted: %s", e.Info)
}

// ToErrorDetail implements DetailedError.
func (e *AbortError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "panic", Code: "abort", Stack: e.Stack}
}

// OperatorError attributes a session failure to its operator kind and source.
type OperatorError struct {
	Err    error
	Kind   string
	Source string
}

func (e *OperatorError) Error() string {
	return fmt.Sprintf("error in %s operator at %s: %v", e.Kind, e.Source, e.Err)
}

func (e *OperatorError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// WireFormatError represents a wire format encoding/decoding error.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "wire_format"}
}
