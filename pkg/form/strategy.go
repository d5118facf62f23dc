package form

import (
	"context"
	"fmt"
	"strings"
)

// Validatable is the view of a field a Strategy acts on.
type Validatable interface {
	Touched() bool
	ValidationEnabled() bool
	Validate(ctx context.Context) bool
}

// Strategy decides when user interaction triggers validation. Hooks run
// after the field applied the interaction.
type Strategy interface {
	OnChange(ctx context.Context, field Validatable)
	OnBlur(ctx context.Context, field Validatable)
}

// StrategyFuncs adapts plain functions to Strategy. Nil hooks do nothing.
type StrategyFuncs struct {
	Change func(ctx context.Context, field Validatable)
	Blur   func(ctx context.Context, field Validatable)
}

func (s StrategyFuncs) OnChange(ctx context.Context, field Validatable) {
	if s.Change != nil {
		s.Change(ctx, field)
	}
}

func (s StrategyFuncs) OnBlur(ctx context.Context, field Validatable) {
	if s.Blur != nil {
		s.Blur(ctx, field)
	}
}

var (
	// DefaultStrategy validates on every blur, and on change once the field
	// has been touched, so the first keystrokes never flag an error.
	DefaultStrategy Strategy = StrategyFuncs{Change: validateIfTouched, Blur: validateNow}
	// ChangeStrategy validates on every change and blur.
	ChangeStrategy Strategy = StrategyFuncs{Change: validateNow, Blur: validateNow}
	// ManualStrategy never validates on its own; callers invoke Validate.
	ManualStrategy Strategy = StrategyFuncs{}
)

// StrategyByName maps "default" (or "blur"), "change" and "manual" to the
// stock strategies. An empty name selects DefaultStrategy.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "blur":
		return DefaultStrategy, nil
	case "change":
		return ChangeStrategy, nil
	case "manual":
		return ManualStrategy, nil
	default:
		return nil, fmt.Errorf("form: unknown validation strategy %q", name)
	}
}

func validateIfTouched(ctx context.Context, field Validatable) {
	if field.Touched() {
		field.Validate(ctx)
	}
}

func validateNow(ctx context.Context, field Validatable) {
	field.Validate(ctx)
}
