package batch

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks invalid arguments to the public configuration
// setters. Raised synchronously at the call site; no partial mutation
// occurs.
var ErrConfiguration = errors.New("invalid batch configuration")

// ExhaustionError tags a failure as recoverable resource exhaustion. A
// Processor returns one (via Exhausted) to tell the controller the current
// chunk must not commit; the controller also synthesizes one when marking a
// chunk would exceed the remaining mutation quota. The next generation
// reacts by shrinking its scope.
type ExhaustionError struct {
	Err error
}

func (e *ExhaustionError) Error() string {
	if e.Err == nil {
		return "resource exhaustion"
	}
	return "resource exhaustion: " + e.Err.Error()
}

func (e *ExhaustionError) Unwrap() error { return e.Err }

// Exhausted wraps err with the exhaustion tag. A nil err still produces a
// tagged error.
func Exhausted(err error) error {
	return &ExhaustionError{Err: err}
}

// Exhaustedf is Exhausted with formatting.
func Exhaustedf(format string, args ...any) error {
	return &ExhaustionError{Err: fmt.Errorf(format, args...)}
}

// IsExhaustion reports whether err carries the exhaustion tag anywhere in
// its chain.
func IsExhaustion(err error) bool {
	var tagged *ExhaustionError
	return errors.As(err, &tagged)
}
