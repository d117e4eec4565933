// Package migerr defines the typed failure kinds the engine and source model
// surface to callers, so they can be distinguished with errors.Is/errors.As
// instead of string-matching error messages.
package migerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Sql* failures originate from the driver facade and are
// propagated unchanged rather than re-wrapped into one of these.
var (
	// ErrMigration is the generic engine failure; ErrWrongMigrationData and
	// ErrInvalidOperation wrap it, the other sentinels here do not.
	ErrMigration = errors.New("migration")

	// ErrWrongMigrationData indicates the source tree is malformed, missing,
	// or logically inconsistent.
	ErrWrongMigrationData = fmt.Errorf("%w: wrong migration data", ErrMigration)

	// ErrInvalidArgument indicates a bad parameter to a public operation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedScheme indicates an unrecognized source URI scheme.
	ErrUnsupportedScheme = errors.New("not supported url schema")

	// ErrNotImplemented indicates a recognized but unimplemented URI scheme.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidOperation indicates an operation invoked in an illegal state.
	ErrInvalidOperation = fmt.Errorf("%w: invalid operation", ErrMigration)

	// ErrCancelled indicates cooperative cancellation was acknowledged.
	ErrCancelled = errors.New("cancelled")
)

// WrongMigrationData wraps ErrWrongMigrationData with a formatted detail,
// e.g. WrongMigrationData("migration directory %q does not exist", dir).
func WrongMigrationData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrWrongMigrationData, fmt.Sprintf(format, args...))
}

// InvalidArgument wraps ErrInvalidArgument naming the offending parameter.
func InvalidArgument(param, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidArgument, param, fmt.Sprintf(format, args...))
}

// InvalidOperation wraps ErrInvalidOperation with a formatted detail.
func InvalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
