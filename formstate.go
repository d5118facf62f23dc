// Package formstate is the entry point of the module. It re-exports the form
// state types from pkg/form and wires definitions, messages and the terminal
// binding together for callers that just want a working form.
//
//	res, err := formstate.Load(ctx, formstate.Request{Definition: &doc})
//	if err != nil { ... }
//	defer res.Close()
//	err = formstate.Prompt(ctx, res)
package formstate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/goliatone/go-formstate/pkg/binding/terminal"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/schema"
)

type (
	FormObject  = form.FormObject
	Group       = form.Group
	GroupConfig = form.GroupConfig
	Strategy    = form.Strategy
	Event       = form.Event

	FieldState[M, V any]  = form.FieldState[M, V]
	FieldConfig[M, V any] = form.FieldConfig[M, V]
	Transform[M, V any]   = form.Transform[M, V]
	Control[V any]        = form.Control[V]

	// Request names the definition to load; see orchestrator.Request.
	Request = orchestrator.Request
	// Result is a loaded form with its message catalog.
	Result = orchestrator.Result
)

// ErrValueShape reports a value that cannot be applied to the form object it
// names, such as a map for a field or a scalar for a group.
var ErrValueShape = errors.New("formstate: value does not match the form shape")

// NewField builds a field in its reset state.
func NewField[M, V any](cfg FieldConfig[M, V]) *FieldState[M, V] {
	return form.NewField(cfg)
}

// NewGroup builds an empty group.
func NewGroup(cfg GroupConfig) *Group {
	return form.NewGroup(cfg)
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Load resolves req into a live form using a one-off orchestrator.
func Load(ctx context.Context, req Request, options ...orchestrator.Option) (*Result, error) {
	return orchestrator.New(options...).Load(ctx, req)
}

// LoadExample loads one of the bundled definitions by form name.
func LoadExample(ctx context.Context, name string, options ...orchestrator.Option) (*Result, error) {
	store, err := Examples()
	if err != nil {
		return nil, err
	}
	def, ok := store.Definition(name)
	if !ok {
		return nil, fmt.Errorf("formstate: no bundled form %q (have %v)", name, store.Names())
	}
	doc, err := schema.ReadFS(DefinitionsFS(), def.Source)
	if err != nil {
		return nil, err
	}
	return Load(ctx, Request{Definition: &doc}, options...)
}

// Prompt runs an interactive terminal session over the loaded form. The
// result's catalog and secret names are applied before options, so options
// may override them.
func Prompt(ctx context.Context, res *Result, options ...terminal.Option) error {
	if res == nil || res.Group == nil {
		return errors.New("formstate: nothing to prompt for")
	}
	opts := append([]terminal.Option{
		terminal.WithCatalog(res.Catalog),
		terminal.WithSecrets(res.Secrets),
	}, options...)
	session, err := terminal.New(opts...)
	if err != nil {
		return err
	}
	return session.Run(ctx, res.Group)
}

// Fill applies values to g as if a user had typed them: every named text
// control receives OnChange with the value rendered as text, and nested maps
// fill nested groups. Names are resolved with Group.Resolve, so an unknown
// name fails with a *form.LookupError. Fill does not validate; strategies
// still run, so fields using ChangeStrategy validate as they are filled.
func Fill(ctx context.Context, g *Group, values map[string]any) error {
	if g == nil {
		return errors.New("formstate: group is required")
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		obj, err := g.Resolve(name)
		if err != nil {
			return err
		}
		if err := fillObject(ctx, obj, values[name]); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func fillObject(ctx context.Context, obj FormObject, value any) error {
	switch typed := obj.(type) {
	case *Group:
		nested, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: group %s needs a map, got %T", ErrValueShape, typed.Name(), value)
		}
		return Fill(ctx, typed, nested)
	case Control[string]:
		text, err := textOf(value)
		if err != nil {
			return err
		}
		typed.OnChange(ctx, text)
		return nil
	default:
		return fmt.Errorf("%w: %s does not take text input", ErrValueShape, obj.Name())
	}
}

// MaskSecrets returns a copy of values with every non-empty secret replaced
// by mask. secrets is keyed by dotted path, as in Result.Secrets.
func MaskSecrets(values map[string]any, secrets map[string]bool, mask string) map[string]any {
	return maskSecrets(values, secrets, mask, "")
}

func maskSecrets(values map[string]any, secrets map[string]bool, mask, prefix string) map[string]any {
	out := make(map[string]any, len(values))
	for name, value := range values {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if nested, ok := value.(map[string]any); ok {
			out[name] = maskSecrets(nested, secrets, mask, path)
			continue
		}
		if secrets[path] && !blank(value) {
			out[name] = mask
			continue
		}
		out[name] = value
	}
	return out
}

func blank(value any) bool {
	if value == nil || value == "" {
		return true
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func textOf(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case map[string]any, []any:
		return "", fmt.Errorf("%w: got %T for a field", ErrValueShape, value)
	default:
		return fmt.Sprint(v), nil
	}
}
