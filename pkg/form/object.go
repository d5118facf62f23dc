package form

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// FormObject is the capability set shared by fields and groups. Groups
// compose children exclusively through this interface. The unexported
// setParent method keeps the set closed to FieldState and Group.
type FormObject interface {
	// ID is a random identifier used to correlate logs and events. Group
	// membership is tracked by reference, not by ID.
	ID() string
	Name() string

	Valid() bool
	Invalid() bool
	Dirty() bool
	Pristine() bool
	Touched() bool
	Untouched() bool
	Validating() bool

	Value() any
	Reset()
	Validate(ctx context.Context) bool

	Parent() *Group
	Subscribe(fn Listener) (cancel func())

	setParent(g *Group)
}

// Control is what a render layer binds to: the displayed value, the input
// callbacks and the per-rule error flags.
type Control[V any] interface {
	FormObject
	ViewValue() V
	OnChange(ctx context.Context, value V)
	OnBlur(ctx context.Context)
	Error() map[string]bool
}

// RuleSet exposes the validators of a field without their predicates.
type RuleSet interface {
	Rules() []validation.Rule
}

var (
	_ FormObject      = (*Group)(nil)
	_ Control[string] = (*FieldState[int, string])(nil)
	_ RuleSet         = (*FieldState[string, string])(nil)
)
