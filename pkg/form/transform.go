package form

import (
	"fmt"
	"reflect"
)

// Transform converts between the model representation M and the view
// representation V of a field. Parser runs before validation; Formatter runs
// whenever the model value is set from outside (construction, Reset,
// SetValue). Parser errors fail validation under ParseErrorKey.
type Transform[M, V any] struct {
	Parser    func(view V) (M, error)
	Formatter func(model M) V
}

// ParseErrorKey is the error-map key reporting that the view value could not
// be parsed. It is only present for fields with a parser.
const ParseErrorKey = "parse"

// resolveTransform fills missing halves with identity conversions. Identity
// requires M and V to be the same type; anything else is a configuration
// error and panics at construction.
func resolveTransform[M, V any](name string, t *Transform[M, V]) (Transform[M, V], bool) {
	var out Transform[M, V]
	hasParser := false
	if t != nil {
		out = *t
		hasParser = t.Parser != nil
	}
	if out.Parser != nil && out.Formatter != nil {
		return out, hasParser
	}

	mt, vt := reflect.TypeFor[M](), reflect.TypeFor[V]()
	if mt != vt {
		panic(fmt.Sprintf("form: field %q converts %s to %s and needs both a parser and a formatter", name, vt, mt))
	}
	if out.Parser == nil {
		out.Parser = func(view V) (M, error) {
			model, _ := any(view).(M)
			return model, nil
		}
	}
	if out.Formatter == nil {
		out.Formatter = func(model M) V {
			view, _ := any(model).(V)
			return view
		}
	}
	return out, hasParser
}
