package schema

import (
	"errors"
	"strings"
)

// FieldType names the model type a text field parses into.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
)

// Form is the definition of a group: its own fields plus nested groups.
type Form struct {
	Name   string  `yaml:"name" json:"name"`
	Label  string  `yaml:"label,omitempty" json:"label,omitempty"`
	Fields []Field `yaml:"fields,omitempty" json:"fields,omitempty"`
	Groups []Form  `yaml:"groups,omitempty" json:"groups,omitempty"`
}

// Field is the definition of a single text-editable field.
type Field struct {
	Name      string    `yaml:"name" json:"name"`
	Label     string    `yaml:"label,omitempty" json:"label,omitempty"`
	Type      FieldType `yaml:"type,omitempty" json:"type,omitempty"`
	Initial   any       `yaml:"initial,omitempty" json:"initial,omitempty"`
	Required  bool      `yaml:"required,omitempty" json:"required,omitempty"`
	MinLength *int      `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength *int      `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Minimum   *float64  `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum   *float64  `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	Pattern   string    `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	// Tags are go-playground/validator expressions such as "email" or "url".
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Sanitize bool     `yaml:"sanitize,omitempty" json:"sanitize,omitempty"`
	// Strategy is one of default, change or manual.
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Secret   bool   `yaml:"secret,omitempty" json:"secret,omitempty"`
}

var (
	ErrEmptyName   = errors.New("schema: name is required")
	ErrUnknownType = errors.New("schema: unknown field type")
	ErrDuplicate   = errors.New("schema: duplicate name")
)

// KnownType reports whether t is supported. The empty type means string.
func KnownType(t FieldType) bool {
	switch t {
	case "", TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// Labels collects the display label of every field and group, keyed by name.
// Nested definitions overwrite outer ones on name collisions.
func (f Form) Labels() map[string]string {
	labels := make(map[string]string)
	f.collectLabels(labels)
	return labels
}

func (f Form) collectLabels(out map[string]string) {
	if label := strings.TrimSpace(f.Label); label != "" {
		out[f.Name] = label
	}
	for _, field := range f.Fields {
		if label := strings.TrimSpace(field.Label); label != "" {
			out[field.Name] = label
		}
	}
	for _, group := range f.Groups {
		group.collectLabels(out)
	}
}

// Secrets lists the fields marked secret by dotted path below f, such as
// "password" or "owner.password".
func (f Form) Secrets() map[string]bool {
	out := make(map[string]bool)
	var walk func(Form, string)
	walk = func(form Form, prefix string) {
		for _, field := range form.Fields {
			if field.Secret {
				out[joinPath(prefix, field.Name)] = true
			}
		}
		for _, group := range form.Groups {
			walk(group, joinPath(prefix, group.Name))
		}
	}
	walk(f, "")
	return out
}
