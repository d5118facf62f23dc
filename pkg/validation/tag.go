package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	tagEngineOnce sync.Once
	tagEngine     *playground.Validate
)

func engine() *playground.Validate {
	tagEngineOnce.Do(func() {
		tagEngine = playground.New(playground.WithRequiredStructEnabled())
	})
	return tagEngine
}

// Tag delegates to a go-playground/validator tag expression such as "email",
// "url" or "uuid4", registered under key. Unknown tags fail the rule.
func Tag[T any](key, tag string) Validator[T] {
	v := New(key, func(_ context.Context, value T) (bool, error) {
		err := engine().Var(value, tag)
		if err == nil {
			return true, nil
		}
		var fieldErrs playground.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return false, nil
		}
		return false, fmt.Errorf("validation: tag %q: %w", tag, err)
	})
	return withParams(v, map[string]any{"tag": tag})
}

// Email is Tag under the "email" key.
func Email[T any]() Validator[T] {
	return Tag[T]("email", "email")
}

// CheckTag reports whether tag is an expression the tag engine understands.
func CheckTag(tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validation: invalid tag %q: %v", tag, r)
		}
	}()
	_ = engine().Var("", tag)
	return nil
}
