package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// Transformer mutates a definition before it is built. Implementations can
// rename fields, tighten rules or relabel fields.
type Transformer interface {
	Transform(ctx context.Context, def *schema.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, def *schema.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, def *schema.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, def)
}

// PresetTransformer applies declarative patches loaded from YAML or JSON.
// Field paths use dots to reach into nested groups:
//
//	fields:
//	  email: {label: "Work e-mail", required: true}
//	  address.city: {strategy: change}
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Label  string                `yaml:"label"`
	Fields map[string]fieldPatch `yaml:"fields"`
}

type fieldPatch struct {
	Label    string `yaml:"label"`
	Rename   string `yaml:"rename"`
	Strategy string `yaml:"strategy"`
	Required *bool  `yaml:"required"`
	Sanitize *bool  `yaml:"sanitize"`
	Secret   *bool  `yaml:"secret"`
}

// NewPresetTransformer constructs a transformer from raw YAML or JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patches onto def. A path that matches no field is an
// error.
func (t *PresetTransformer) Transform(ctx context.Context, def *schema.Form) error {
	if def == nil {
		return errors.New("preset transformer: definition is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.document.Label != "" {
		def.Label = t.document.Label
	}
	for path, patch := range t.document.Fields {
		field := findFieldByPath(def, path)
		if field == nil {
			return fmt.Errorf("preset transformer: field %q not found", path)
		}
		applyFieldPatch(field, patch)
	}
	return nil
}

func applyFieldPatch(field *schema.Field, patch fieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Strategy != "" {
		field.Strategy = patch.Strategy
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Sanitize != nil {
		field.Sanitize = *patch.Sanitize
	}
	if patch.Secret != nil {
		field.Secret = *patch.Secret
	}
	if name := strings.TrimSpace(patch.Rename); name != "" {
		field.Name = name
	}
}

func findFieldByPath(def *schema.Form, path string) *schema.Field {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	current := def
	for _, segment := range segments[:len(segments)-1] {
		next := findGroup(current, segment)
		if next == nil {
			return nil
		}
		current = next
	}
	last := segments[len(segments)-1]
	for i := range current.Fields {
		if current.Fields[i].Name == last {
			return &current.Fields[i]
		}
	}
	return nil
}

func findGroup(def *schema.Form, name string) *schema.Form {
	for i := range def.Groups {
		if def.Groups[i].Name == name {
			return &def.Groups[i]
		}
	}
	return nil
}
