package orm

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a query expects exactly one row but finds none.
var ErrNotFound = errors.New("orm: not found")

// ErrUnsupportedOperation is matched by errors returned from
// CollectionProxy.Call when no route answers the requested method.
var ErrUnsupportedOperation = errors.New("orm: unsupported operation")

// ErrInvalidArgument is returned when a method dispatched by name receives
// arguments of the wrong number or type.
var ErrInvalidArgument = errors.New("orm: invalid argument")

// ErrRecordInvalid is matched by validation failures raised before a record
// is persisted through an association.
var ErrRecordInvalid = errors.New("orm: record invalid")

// UnsupportedOperationError reports a method that neither the proxy, its
// extensions, the loaded collection nor the model's query methods provide.
// The message names the proxy rather than the loaded rows.
type UnsupportedOperationError struct {
	Method string
	Proxy  string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("orm: undefined method %q via proxy for %s", e.Method, e.Proxy)
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }

// ValidationError wraps the error returned by an association's Validate hook.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "orm: record invalid: " + e.Err.Error()
}

// Unwrap lets errors.Is match both ErrRecordInvalid and the hook's own error.
func (e *ValidationError) Unwrap() []error { return []error{ErrRecordInvalid, e.Err} }

func argError(method string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, method, fmt.Sprintf(format, args...))
}
