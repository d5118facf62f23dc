// Package transform provides stock parser/formatter pairs for fields whose
// view is text.
package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Identity keeps the view and model representation identical.
func Identity[T any]() *form.Transform[T, T] {
	return &form.Transform[T, T]{
		Parser:    func(view T) (T, error) { return view, nil },
		Formatter: func(model T) T { return model },
	}
}

// Int parses base-10 integers. Blank input parses to 0 and 0 formats as
// blank, so an explicit 0 is indistinguishable from no input; use
// OptionalInt when that matters.
func Int() *form.Transform[int64, string] {
	return &form.Transform[int64, string]{
		Parser: func(view string) (int64, error) {
			n, err := parseInt(view)
			if n == nil {
				return 0, err
			}
			return *n, nil
		},
		Formatter: func(model int64) string {
			if model == 0 {
				return ""
			}
			return formatInt(model)
		},
	}
}

// Float parses decimal numbers with the same blank handling as Int.
func Float() *form.Transform[float64, string] {
	return &form.Transform[float64, string]{
		Parser: func(view string) (float64, error) {
			n, err := parseFloat(view)
			if n == nil {
				return 0, err
			}
			return *n, nil
		},
		Formatter: func(model float64) string {
			if model == 0 {
				return ""
			}
			return formatFloat(model)
		},
	}
}

// OptionalInt parses blank input to nil and anything else, 0 included, to a
// present value. Required fails only on nil and range rules skip nil.
func OptionalInt() *form.Transform[*int64, string] {
	return optional(parseInt, formatInt)
}

// OptionalFloat is OptionalInt for decimal numbers.
func OptionalFloat() *form.Transform[*float64, string] {
	return optional(parseFloat, formatFloat)
}

func optional[T any](parse func(string) (*T, error), format func(T) string) *form.Transform[*T, string] {
	return &form.Transform[*T, string]{
		Parser: parse,
		Formatter: func(model *T) string {
			if model == nil {
				return ""
			}
			return format(*model)
		},
	}
}

func parseInt(view string) (*int64, error) {
	trimmed := strings.TrimSpace(view)
	if trimmed == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("transform: %q is not an integer", view)
	}
	return &n, nil
}

func parseFloat(view string) (*float64, error) {
	trimmed := strings.TrimSpace(view)
	if trimmed == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("transform: %q is not a number", view)
	}
	return &n, nil
}

func formatInt(n int64) string     { return strconv.FormatInt(n, 10) }
func formatFloat(n float64) string { return strconv.FormatFloat(n, 'f', -1, 64) }

// Bool accepts the spellings understood by strconv.ParseBool plus yes/no.
// Blank input is false.
func Bool() *form.Transform[bool, string] {
	return &form.Transform[bool, string]{
		Parser: func(view string) (bool, error) {
			switch strings.ToLower(strings.TrimSpace(view)) {
			case "":
				return false, nil
			case "y", "yes":
				return true, nil
			case "n", "no":
				return false, nil
			}
			b, err := strconv.ParseBool(strings.TrimSpace(view))
			if err != nil {
				return false, fmt.Errorf("transform: %q is not a boolean", view)
			}
			return b, nil
		},
		Formatter: strconv.FormatBool,
	}
}

// Trimmed strips surrounding whitespace from the view value.
func Trimmed() *form.Transform[string, string] {
	return Compose(strings.TrimSpace, Identity[string]())
}

// Time parses and formats with layout. Blank input is the zero time, which
// formats back to blank.
func Time(layout string) *form.Transform[time.Time, string] {
	return &form.Transform[time.Time, string]{
		Parser: func(view string) (time.Time, error) {
			trimmed := strings.TrimSpace(view)
			if trimmed == "" {
				return time.Time{}, nil
			}
			t, err := time.Parse(layout, trimmed)
			if err != nil {
				return time.Time{}, fmt.Errorf("transform: %q does not match %s", view, layout)
			}
			return t, nil
		},
		Formatter: func(model time.Time) string {
			if model.IsZero() {
				return ""
			}
			return model.Format(layout)
		},
	}
}

// Compose runs pre on the view value before next's parser. The formatter is
// next's.
func Compose[M any](pre func(string) string, next *form.Transform[M, string]) *form.Transform[M, string] {
	return &form.Transform[M, string]{
		Parser: func(view string) (M, error) {
			return next.Parser(pre(view))
		},
		Formatter: next.Formatter,
	}
}
