// internal/fault/fault.go
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure of a recipe transfer.
// The numeric value doubles as the process exit code of the CLI.
type Kind uint16

const (
	// Internal is anything not covered by a more specific kind.
	Internal Kind = 1

	ConnectionFailed      Kind = 2
	ControllerNotReady    Kind = 3
	WritePermissionDenied Kind = 4
	CapacityExceeded      Kind = 5
	UnsupportedAction     Kind = 6
	VerificationMismatch  Kind = 7
	OperationCanceled     Kind = 8

	// DeviceException is a Modbus exception response from the controller.
	DeviceException Kind = 9
)

func (k Kind) String() string {
	switch k {
	case ConnectionFailed:
		return "connection-failed"
	case ControllerNotReady:
		return "controller-not-ready"
	case WritePermissionDenied:
		return "write-permission-denied"
	case CapacityExceeded:
		return "capacity-exceeded"
	case UnsupportedAction:
		return "unsupported-action"
	case VerificationMismatch:
		return "verification-mismatch"
	case OperationCanceled:
		return "operation-canceled"
	case DeviceException:
		return "device-exception"
	default:
		return "internal"
	}
}

// Error is the single error type that crosses the transfer boundary.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, fault.Of(fault.CapacityExceeded)) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Code exposes the kind as a uint16, see cmd/recipesync errorCode.
func (e *Error) Code() uint16 { return uint16(e.Kind) }

// Of returns a bare sentinel of the given kind for errors.Is comparisons.
func Of(k Kind) *Error { return &Error{Kind: k} }

// New builds an *Error with a formatted message.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around err. A nil err yields nil.
func Wrap(k Kind, err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf classifies an arbitrary error.
// Context cancellation and deadline always map to OperationCanceled.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OperationCanceled
	}
	return Internal
}

// From converts err into an *Error, keeping an existing classification.
// A wrapped *Error keeps its outer context in the message.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*Error); ok {
		return fe
	}
	return &Error{Kind: KindOf(err), Err: err}
}
