package openapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/schema"
)

const extensionKey = "x-formstate"

var (
	ErrSchemaNotFound = errors.New("openapi: schema not found")
	ErrNotObject      = errors.New("openapi: schema is not an object")
)

// Option tunes document loading.
type Option func(*options)

type options struct {
	externalRefs bool
	validate     bool
}

// WithExternalRefs lets the loader follow references to other documents.
func WithExternalRefs() Option {
	return func(o *options) { o.externalRefs = true }
}

// WithValidation validates the whole document before converting it.
func WithValidation() Option {
	return func(o *options) { o.validate = true }
}

// FromData converts schemaName from an in-memory document.
func FromData(ctx context.Context, data []byte, schemaName string, opts ...Option) (schema.Form, error) {
	doc, err := schema.NewDocument(schema.Inline(""), data)
	if err != nil {
		return schema.Form{}, fmt.Errorf("openapi: %w", err)
	}
	return FromDocument(ctx, doc, schemaName, opts...)
}

// FromDocument converts components.schemas[schemaName] of doc into a form
// named after the schema.
func FromDocument(ctx context.Context, doc schema.Document, schemaName string, opts ...Option) (schema.Form, error) {
	spec, err := load(ctx, doc, opts...)
	if err != nil {
		return schema.Form{}, err
	}
	ref, ok := spec.Components.Schemas[schemaName]
	if !ok || ref == nil || ref.Value == nil {
		return schema.Form{}, fmt.Errorf("%w: %q in %s (available: %s)",
			ErrSchemaNotFound, schemaName, doc.Location(), strings.Join(names(spec), ", "))
	}

	c := converter{logger: zerolog.Ctx(ctx), visiting: make(map[*openapi3.Schema]bool)}
	return c.form(schemaName, ref.Value)
}

// SchemaNames lists the component schemas of doc in sorted order.
func SchemaNames(ctx context.Context, doc schema.Document, opts ...Option) ([]string, error) {
	spec, err := load(ctx, doc, opts...)
	if err != nil {
		return nil, err
	}
	return names(spec), nil
}

func load(ctx context.Context, doc schema.Document, opts ...Option) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cfg options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: cfg.externalRefs,
	}
	spec, err := loader.LoadFromData(doc.Raw())
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", doc.Location(), err)
	}
	if cfg.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate %s: %w", doc.Location(), err)
		}
	}
	if spec.Components == nil {
		spec.Components = &openapi3.Components{}
	}
	return spec, nil
}

func names(spec *openapi3.T) []string {
	out := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type converter struct {
	logger   *zerolog.Logger
	visiting map[*openapi3.Schema]bool
}

func (c converter) form(name string, src *openapi3.Schema) (schema.Form, error) {
	if t := firstSchemaType(src.Type); t != "" && t != "object" {
		return schema.Form{}, fmt.Errorf("%w: %q has type %s", ErrNotObject, name, t)
	}
	if c.visiting[src] {
		return schema.Form{}, fmt.Errorf("openapi: schema %q references itself", name)
	}
	c.visiting[src] = true
	defer delete(c.visiting, src)

	ext := extension(src.Extensions)
	out := schema.Form{Name: name, Label: firstNonEmpty(ext.Label, src.Title)}
	for _, prop := range propertyOrder(src, ext.Order) {
		ref := src.Properties[prop]
		if ref == nil || ref.Value == nil {
			continue
		}
		value := ref.Value
		switch t := firstSchemaType(value.Type); {
		case t == "object" || (t == "" && len(value.Properties) > 0):
			group, err := c.form(prop, value)
			if err != nil {
				return schema.Form{}, err
			}
			out.Groups = append(out.Groups, group)
		case t == "string" || t == "integer" || t == "number" || t == "boolean":
			out.Fields = append(out.Fields, field(prop, value, slices.Contains(src.Required, prop)))
		default:
			c.logger.Debug().
				Str("schema", name).
				Str("property", prop).
				Str("type", t).
				Msg("skipping property without a scalar or object type")
		}
	}
	return out, nil
}

func field(name string, src *openapi3.Schema, required bool) schema.Field {
	ext := extension(src.Extensions)
	f := schema.Field{
		Name:     name,
		Label:    firstNonEmpty(ext.Label, src.Title),
		Type:     schema.FieldType(firstSchemaType(src.Type)),
		Initial:  src.Default,
		Required: required,
		Pattern:  src.Pattern,
		Sanitize: ext.Sanitize,
		Strategy: ext.Strategy,
		Secret:   ext.Secret || src.Format == "password" || src.WriteOnly,
	}
	if src.Min != nil {
		value := *src.Min
		f.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		f.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		f.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		f.MaxLength = &value
	}
	if tag, ok := formatTags[src.Format]; ok {
		f.Tags = append(f.Tags, tag)
	}
	if len(src.Enum) > 0 {
		f.Tags = append(f.Tags, oneOf(src.Enum))
	}
	return f
}

var formatTags = map[string]string{
	"email":     "email",
	"uri":       "url",
	"url":       "url",
	"uuid":      "uuid",
	"hostname":  "hostname",
	"ipv4":      "ipv4",
	"ipv6":      "ipv6",
	"date":      "datetime=2006-01-02",
	"date-time": "datetime=2006-01-02T15:04:05Z07:00",
}

func oneOf(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return "oneof=" + strings.Join(parts, " ")
}

// propertyOrder lists order first, then the remaining properties sorted
// by name.
func propertyOrder(src *openapi3.Schema, order []string) []string {
	out := make([]string, 0, len(src.Properties))
	seen := make(map[string]bool, len(src.Properties))
	for _, name := range order {
		if _, ok := src.Properties[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

type formstateExtension struct {
	Label    string
	Strategy string
	Sanitize bool
	Secret   bool
	Order    []string
}

func extension(raw map[string]any) formstateExtension {
	var ext formstateExtension
	values, ok := raw[extensionKey].(map[string]any)
	if !ok {
		return ext
	}
	ext.Label, _ = values["label"].(string)
	ext.Strategy, _ = values["strategy"].(string)
	ext.Sanitize, _ = values["sanitize"].(bool)
	ext.Secret, _ = values["secret"].(bool)
	if order, ok := values["order"].([]any); ok {
		for _, item := range order {
			if s, ok := item.(string); ok {
				ext.Order = append(ext.Order, s)
			}
		}
	}
	return ext
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
