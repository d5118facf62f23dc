package schema

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/transform"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Build turns a definition into a live group tree. Every field is attached
// to its group; each field edits text (V is string) and parses into the
// model type named by Field.Type.
func Build(def Form) (*form.Group, error) {
	return build(def, "")
}

func build(def Form, path string) (*form.Group, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group at %q", ErrEmptyName, displayPath(path))
	}
	path = joinPath(path, name)

	g := form.NewGroup(form.GroupConfig{Name: name})
	seen := make(map[string]bool, len(def.Fields)+len(def.Groups))
	claim := func(child string) error {
		if seen[child] {
			return fmt.Errorf("%w: %q in %s", ErrDuplicate, child, path)
		}
		seen[child] = true
		return nil
	}

	for _, fieldDef := range def.Fields {
		obj, err := BuildField(fieldDef)
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", path, err)
		}
		if err := claim(obj.Name()); err != nil {
			return nil, err
		}
		if err := g.AddField(obj); err != nil {
			return nil, fmt.Errorf("schema: %s: %w", path, err)
		}
	}
	for _, groupDef := range def.Groups {
		child, err := build(groupDef, path)
		if err != nil {
			return nil, err
		}
		if err := claim(child.Name()); err != nil {
			return nil, err
		}
		if err := g.AddField(child); err != nil {
			return nil, fmt.Errorf("schema: %s: %w", path, err)
		}
	}
	return g, nil
}

// BuildField creates a single field from its definition.
func BuildField(def Field) (form.Control[string], error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: field", ErrEmptyName)
	}
	strategy, err := form.StrategyByName(def.Strategy)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}

	switch def.Type {
	case "", TypeString:
		return stringField(name, def, strategy)
	case TypeInteger:
		return integerField(name, def, strategy)
	case TypeNumber:
		return numberField(name, def, strategy)
	case TypeBoolean:
		return booleanField(name, def, strategy)
	default:
		return nil, fmt.Errorf("%w %q for field %q", ErrUnknownType, def.Type, name)
	}
}

func stringField(name string, def Field, strategy form.Strategy) (form.Control[string], error) {
	var validators []validation.Validator[string]
	if def.Required {
		validators = append(validators, validation.Required[string]())
	}
	if def.MinLength != nil {
		validators = append(validators, validation.MinLength[string](*def.MinLength))
	}
	if def.MaxLength != nil {
		validators = append(validators, validation.MaxLength[string](*def.MaxLength))
	}
	if def.Pattern != "" {
		re, err := regexp.Compile(def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("field %q: pattern: %w", name, err)
		}
		validators = append(validators, validation.PatternRegexp[string](re))
	}
	tagged, err := tagValidators[string](name, def.Tags)
	if err != nil {
		return nil, err
	}
	validators = append(validators, tagged...)

	tr := transform.Trimmed()
	if def.Sanitize {
		tr = transform.Sanitized()
	}
	initial := ""
	if def.Initial != nil {
		initial = fmt.Sprint(def.Initial)
	}
	return form.NewField(form.FieldConfig[string, string]{
		Name:         name,
		InitialValue: initial,
		Validators:   validators,
		Transform:    tr,
		Strategy:     strategy,
	}), nil
}

func integerField(name string, def Field, strategy form.Strategy) (form.Control[string], error) {
	initial, err := toInt(def.Initial)
	if err != nil {
		return nil, fmt.Errorf("field %q: initial: %w", name, err)
	}
	validators := numericValidators[*int64](def)
	tagged, err := tagValidators[*int64](name, def.Tags)
	if err != nil {
		return nil, err
	}
	return form.NewField(form.FieldConfig[*int64, string]{
		Name:         name,
		InitialValue: initial,
		Validators:   append(validators, tagged...),
		Transform:    transform.OptionalInt(),
		Strategy:     strategy,
	}), nil
}

func numberField(name string, def Field, strategy form.Strategy) (form.Control[string], error) {
	initial, err := toFloat(def.Initial)
	if err != nil {
		return nil, fmt.Errorf("field %q: initial: %w", name, err)
	}
	validators := numericValidators[*float64](def)
	tagged, err := tagValidators[*float64](name, def.Tags)
	if err != nil {
		return nil, err
	}
	return form.NewField(form.FieldConfig[*float64, string]{
		Name:         name,
		InitialValue: initial,
		Validators:   append(validators, tagged...),
		Transform:    transform.OptionalFloat(),
		Strategy:     strategy,
	}), nil
}

func booleanField(name string, def Field, strategy form.Strategy) (form.Control[string], error) {
	var initial bool
	switch v := def.Initial.(type) {
	case nil:
	case bool:
		initial = v
	case string:
		parsed, err := transform.Bool().Parser(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: initial: %w", name, err)
		}
		initial = parsed
	default:
		return nil, fmt.Errorf("field %q: initial: %v is not a boolean", name, def.Initial)
	}
	var validators []validation.Validator[bool]
	if def.Required {
		validators = append(validators, validation.Required[bool]())
	}
	return form.NewField(form.FieldConfig[bool, string]{
		Name:         name,
		InitialValue: initial,
		Validators:   validators,
		Transform:    transform.Bool(),
		Strategy:     strategy,
	}), nil
}

// numericValidators works on optional numbers: a nil model is blank, so
// Required fails on it and the range rules let it through.
func numericValidators[T *int64 | *float64](def Field) []validation.Validator[T] {
	var validators []validation.Validator[T]
	if def.Required {
		validators = append(validators, validation.Required[T]())
	}
	if def.Minimum != nil {
		validators = append(validators, validation.Min[T](*def.Minimum))
	}
	if def.Maximum != nil {
		validators = append(validators, validation.Max[T](*def.Maximum))
	}
	return validators
}

func tagValidators[T any](name string, tags []string) ([]validation.Validator[T], error) {
	var validators []validation.Validator[T]
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if err := validation.CheckTag(tag); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		validators = append(validators, validation.Tag[T](tag, tag))
	}
	return validators, nil
}

func toInt(v any) (*int64, error) {
	var n int64
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case int:
		n = int64(typed)
	case int64:
		n = typed
	case float64:
		if typed != math.Trunc(typed) {
			return nil, fmt.Errorf("%v is not an integer", typed)
		}
		n = int64(typed)
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return nil, err
		}
		n = parsed
	default:
		return nil, fmt.Errorf("%v is not an integer", v)
	}
	return &n, nil
}

func toFloat(v any) (*float64, error) {
	var n float64
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case int:
		n = float64(typed)
	case int64:
		n = float64(typed)
	case float64:
		n = typed
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil, err
		}
		n = parsed
	default:
		return nil, fmt.Errorf("%v is not a number", v)
	}
	return &n, nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
