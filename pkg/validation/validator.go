package validation

import (
	"context"
	"fmt"
	"maps"
)

// Predicate reports whether value satisfies a rule. Returning an error marks
// the rule as failed; it never aborts the surrounding validation run.
type Predicate[T any] func(ctx context.Context, value T) (bool, error)

// Validator is a named rule. Keys identify the rule inside a field's error
// map, so a field keeps at most one validator per key.
type Validator[T any] struct {
	Key  string
	Test Predicate[T]
	// Params exposes rule arguments (bounds, patterns, tags) to message
	// templates. Validators built from plain predicates leave it nil.
	Params map[string]any
}

// Rule is the type-erased description of a validator.
type Rule struct {
	Key    string
	Params map[string]any
}

// New wraps fn into a validator tagged with key. Empty values pass without
// calling fn.
func New[T any](key string, fn Predicate[T]) Validator[T] {
	return Validator[T]{
		Key: key,
		Test: func(ctx context.Context, value T) (bool, error) {
			if IsEmpty(value) {
				return true, nil
			}
			if fn == nil {
				return false, ErrNoPredicate
			}
			return fn(ctx, value)
		},
	}
}

// Func adapts a synchronous predicate. Empty values pass.
func Func[T any](key string, fn func(T) bool) Validator[T] {
	return New(key, func(_ context.Context, value T) (bool, error) {
		return fn(value), nil
	})
}

// WithKey returns a copy of v registered under key, which lets the same rule
// appear twice on one field.
func WithKey[T any](v Validator[T], key string) Validator[T] {
	v.Key = key
	v.Params = maps.Clone(v.Params)
	return v
}

// Rule describes the validator without its predicate.
func (v Validator[T]) Rule() Rule {
	return Rule{Key: v.Key, Params: maps.Clone(v.Params)}
}

// Run executes the predicate. Errors and panics both yield ok=false; the
// returned error describes what went wrong so callers can log it.
func (v Validator[T]) Run(ctx context.Context, value T) (ok bool, err error) {
	if v.Test == nil {
		return false, ErrNoPredicate
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("%w: %s: %v", ErrPanic, v.Key, r)
		}
	}()
	ok, err = v.Test(ctx, value)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func withParams[T any](v Validator[T], params map[string]any) Validator[T] {
	v.Params = params
	return v
}
