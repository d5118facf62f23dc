package validation

import (
	"context"
	"regexp"
)

// Canonical rule keys used by the built-in validators.
const (
	KeyRequired  = "required"
	KeyMin       = "min"
	KeyMax       = "max"
	KeyMinLength = "minLength"
	KeyMaxLength = "maxLength"
	KeyPattern   = "pattern"
)

// Required fails on empty and zero values. It is the only built-in that does
// not skip empty input.
func Required[T any]() Validator[T] {
	return Validator[T]{
		Key: KeyRequired,
		Test: func(_ context.Context, value T) (bool, error) {
			return !isZero(value), nil
		},
	}
}

// MinLength requires at least n runes (strings) or n elements (collections).
func MinLength[T any](n int) Validator[T] {
	v := Func(KeyMinLength, func(value T) bool {
		l, ok := lengthOf(value)
		return ok && l >= n
	})
	return withParams(v, map[string]any{"min": n})
}

// MaxLength allows at most n runes or elements.
func MaxLength[T any](n int) Validator[T] {
	v := Func(KeyMaxLength, func(value T) bool {
		l, ok := lengthOf(value)
		return ok && l <= n
	})
	return withParams(v, map[string]any{"max": n})
}

// Pattern compiles expr and requires string values to contain a match.
// Anchor the expression to match the whole value. An invalid expression
// panics, as with regexp.MustCompile.
func Pattern[T any](expr string) Validator[T] {
	return PatternRegexp[T](regexp.MustCompile(expr))
}

// PatternRegexp is Pattern with a precompiled expression.
func PatternRegexp[T any](re *regexp.Regexp) Validator[T] {
	v := Func(KeyPattern, func(value T) bool {
		s, ok := stringOf(value)
		return ok && re.MatchString(s)
	})
	return withParams(v, map[string]any{"pattern": re.String()})
}

// Min requires a numeric value (or numeric string) greater than or equal to n.
func Min[T any](n float64) Validator[T] {
	v := Func(KeyMin, func(value T) bool {
		f, ok := numberOf(value)
		return ok && f >= n
	})
	return withParams(v, map[string]any{"min": n})
}

// Max requires a numeric value (or numeric string) less than or equal to n.
func Max[T any](n float64) Validator[T] {
	v := Func(KeyMax, func(value T) bool {
		f, ok := numberOf(value)
		return ok && f <= n
	})
	return withParams(v, map[string]any{"max": n})
}
