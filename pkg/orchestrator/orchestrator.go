package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formstate/pkg/config"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/metrics"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithTransformers registers transformers that rewrite the definition before
// it is built. They run in registration order.
func WithTransformers(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		for _, t := range transformers {
			if t != nil {
				o.transformers = append(o.transformers, t)
			}
		}
	}
}

// WithMessagesFS supplies "<key>.tpl" message templates that override the
// defaults and any messages carried by the definition.
func WithMessagesFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.messagesFS = fsys
	}
}

// WithCollector records validation metrics of every loaded group.
func WithCollector(collector *metrics.Collector) Option {
	return func(o *Orchestrator) {
		o.collector = collector
	}
}

// WithOpenAPIOptions forwards options to the OpenAPI converter.
func WithOpenAPIOptions(opts ...openapi.Option) Option {
	return func(o *Orchestrator) {
		o.openapiOptions = append(o.openapiOptions, opts...)
	}
}

// WithTracerProvider traces Load with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) {
		o.tracerProvider = tp
	}
}

const instrumentationName = "github.com/goliatone/go-formstate/pkg/orchestrator"

// Orchestrator turns definitions into live forms.
type Orchestrator struct {
	transformers   []Transformer
	messagesFS     fs.FS
	collector      *metrics.Collector
	openapiOptions []openapi.Option
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	o.tracer = o.tracerProvider.Tracer(instrumentationName)
	return o
}

// Request names exactly one definition source.
type Request struct {
	// Definition is a YAML/JSON definition file (see package config).
	Definition *schema.Document
	// OpenAPI is an OpenAPI 3 document; Schema selects the component schema.
	OpenAPI *schema.Document
	Schema  string
	// Form is an already decoded definition.
	Form *schema.Form
}

// Result bundles a live form with what bindings need to present it.
type Result struct {
	Definition schema.Form
	Group      *form.Group
	Catalog    *messages.Catalog
	Secrets    map[string]bool

	stop func()
}

// Close stops metric collection for the group. It is safe to call on a
// result loaded without a collector.
func (r *Result) Close() {
	if r != nil && r.stop != nil {
		r.stop()
	}
}

// Load resolves the request into a definition, applies the transformers and
// builds the group and its message catalog.
func (o *Orchestrator) Load(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "formstate.load",
		trace.WithAttributes(attribute.String("formstate.source", req.source())),
	)
	defer span.End()

	result, err := o.load(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("formstate.form", result.Definition.Name),
		attribute.Int("formstate.fields", len(result.Group.Fields())),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (o *Orchestrator) load(ctx context.Context, req Request) (*Result, error) {
	def, templates, err := o.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, t := range o.transformers {
		if err := t.Transform(ctx, &def); err != nil {
			return nil, fmt.Errorf("orchestrator: transform definition: %w", err)
		}
	}

	group, err := schema.Build(def)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build form: %w", err)
	}

	catalogOpts := []messages.Option{messages.WithLabels(def.Labels())}
	for key, source := range templates {
		catalogOpts = append(catalogOpts, messages.WithTemplate(key, source))
	}
	if o.messagesFS != nil {
		catalogOpts = append(catalogOpts, messages.WithFS(o.messagesFS))
	}
	catalog, err := messages.New(catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: messages: %w", err)
	}

	result := &Result{
		Definition: def,
		Group:      group,
		Catalog:    catalog,
		Secrets:    def.Secrets(),
	}
	if o.collector != nil {
		result.stop = o.collector.Observe(group)
	}

	zerolog.Ctx(ctx).Debug().
		Str("form", def.Name).
		Int("fields", len(group.Fields())).
		Msg("form loaded")
	return result, nil
}

func (r Request) source() string {
	switch {
	case r.Definition != nil && r.OpenAPI == nil && r.Form == nil:
		return "definition"
	case r.OpenAPI != nil && r.Definition == nil && r.Form == nil:
		return "openapi"
	case r.Form != nil && r.Definition == nil && r.OpenAPI == nil:
		return "form"
	default:
		return "invalid"
	}
}

func (o *Orchestrator) resolve(ctx context.Context, req Request) (schema.Form, map[string]string, error) {
	sources := 0
	for _, set := range []bool{req.Definition != nil, req.OpenAPI != nil, req.Form != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return schema.Form{}, nil, errors.New("orchestrator: exactly one of definition, openapi or form is required")
	}

	switch {
	case req.Definition != nil:
		def, err := config.ParseDocument(*req.Definition)
		if err != nil {
			return schema.Form{}, nil, err
		}
		return def.Form, maps.Clone(def.Messages), nil
	case req.OpenAPI != nil:
		if req.Schema == "" {
			return schema.Form{}, nil, errors.New("orchestrator: schema name is required for openapi documents")
		}
		def, err := openapi.FromDocument(ctx, *req.OpenAPI, req.Schema, o.openapiOptions...)
		if err != nil {
			return schema.Form{}, nil, err
		}
		return def, nil, nil
	default:
		if err := config.Check(*req.Form); err != nil {
			return schema.Form{}, nil, fmt.Errorf("orchestrator: %w", err)
		}
		return *req.Form, nil, nil
	}
}
