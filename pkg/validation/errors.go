package validation

import "errors"

var (
	// ErrNoPredicate is reported when a validator has no test function.
	ErrNoPredicate = errors.New("validation: validator has no predicate")
	// ErrPanic wraps a recovered panic raised by a predicate.
	ErrPanic = errors.New("validation: predicate panicked")
)
