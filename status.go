package zvec

import (
	"errors"
	"fmt"
)

// Code classifies the outcome of an operation. The numeric values are part
// of the public contract and stay stable across releases.
type Code uint32

const (
	// CodeOK means the operation succeeded.
	CodeOK Code = 0
	// CodeNotFound means a collection, document, field, or index was absent.
	CodeNotFound Code = 1
	// CodeAlreadyExists means a conflicting entity already exists.
	CodeAlreadyExists Code = 2
	// CodeInvalidArgument means the input was malformed.
	CodeInvalidArgument Code = 3
	// CodeNotSupported means the operation is outside the engine's
	// capabilities.
	CodeNotSupported Code = 4
	// CodeInternal means an unexpected failure inside the engine.
	CodeInternal Code = 5
	// CodePermissionDenied means a write was attempted on a read-only
	// collection.
	CodePermissionDenied Code = 6
	// CodeFailedPrecondition means the collection state forbids the
	// operation, such as use after close.
	CodeFailedPrecondition Code = 7
	// CodeUnknown classifies errors that did not originate here.
	CodeUnknown Code = 8
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeAlreadyExists:
		return "ALREADY_EXISTS"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeNotSupported:
		return "NOT_SUPPORTED"
	case CodeInternal:
		return "INTERNAL_ERROR"
	case CodePermissionDenied:
		return "PERMISSION_DENIED"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type returned by all operations in this package.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds an Error with an explicit code.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the status code from an error. A nil error maps to CodeOK
// and foreign errors map to CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsAlreadyExists reports whether err carries CodeAlreadyExists.
func IsAlreadyExists(err error) bool { return CodeOf(err) == CodeAlreadyExists }

// IsInvalidArgument reports whether err carries CodeInvalidArgument.
func IsInvalidArgument(err error) bool { return CodeOf(err) == CodeInvalidArgument }
