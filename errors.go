package zvec

import (
	"context"
	"errors"

	"github.com/seanmozeik/zvec/internal/engine"
)

// translateError normalizes engine errors into *Error at the API boundary.
// Errors already carrying a code pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	code := CodeUnknown
	switch {
	case errors.Is(err, engine.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, engine.ErrAlreadyExists):
		code = CodeAlreadyExists
	case errors.Is(err, engine.ErrInvalidArgument):
		code = CodeInvalidArgument
	case errors.Is(err, engine.ErrNotSupported):
		code = CodeNotSupported
	case errors.Is(err, engine.ErrPermissionDenied):
		code = CodePermissionDenied
	case errors.Is(err, engine.ErrFailedPrecondition):
		code = CodeFailedPrecondition
	case errors.Is(err, engine.ErrInternal):
		code = CodeInternal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = CodeFailedPrecondition
	}

	return &Error{Code: code, Message: err.Error(), cause: err}
}

func invalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}
