package form

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldNotFound is returned when a string reference does not match any
	// field known to the group.
	ErrFieldNotFound = errors.New("form: field not found")
	// ErrNoGroup is returned by Mount helpers when the context carries no
	// enclosing group.
	ErrNoGroup = errors.New("form: no enclosing group in context")
	// ErrNilField is returned when a nil child is attached to a group.
	ErrNilField = errors.New("form: field is nil")
	// ErrCycle is returned when attaching a group to itself or to one of its
	// descendants.
	ErrCycle = errors.New("form: group cannot contain itself")
)

// LookupError describes a failed name lookup. It matches ErrFieldNotFound
// with errors.Is.
type LookupError struct {
	Group      string
	Name       string
	Suggestion string
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("form: group %q has no field %q", e.Group, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	return ErrFieldNotFound
}
