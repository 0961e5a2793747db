package engine

import "errors"

// Sentinel errors returned by engine operations. The public API maps these
// onto its status codes.
var (
	// ErrNotFound indicates a missing collection, document, field, or index.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a conflicting collection, document, or index.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotSupported indicates an operation outside the engine's capabilities.
	ErrNotSupported = errors.New("not supported")

	// ErrInternal indicates an unexpected engine failure.
	ErrInternal = errors.New("internal error")

	// ErrPermissionDenied indicates a write against a read-only collection.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrFailedPrecondition indicates the collection is not in a state that
	// allows the operation, such as use after close.
	ErrFailedPrecondition = errors.New("failed precondition")
)
