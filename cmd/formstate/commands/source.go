package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// sourceOptions are the flags every command uses to pick a form.
type sourceOptions struct {
	definition  string
	openapi     string
	schemaName  string
	example     string
	messagesDir string
	preset      string
}

func (o *sourceOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.definition, "definition", "d", "", "form definition file (YAML or JSON)")
	flags.StringVar(&o.openapi, "openapi", "", "OpenAPI 3 document")
	flags.StringVar(&o.schemaName, "schema", "", "component schema to use with --openapi")
	flags.StringVarP(&o.example, "example", "e", "", "bundled example form (see `formstate examples`)")
	flags.StringVar(&o.messagesDir, "messages", "", "directory of <rule>.tpl message templates")
	flags.StringVar(&o.preset, "preset", "", "preset file patching labels, strategies and rules")
}

func (o *sourceOptions) load(ctx context.Context) (*formstate.Result, error) {
	set := 0
	for _, v := range []string{o.definition, o.openapi, o.example} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of --definition, --openapi or --example is required")
	}

	options, err := o.orchestratorOptions()
	if err != nil {
		return nil, err
	}

	switch {
	case o.example != "":
		return formstate.LoadExample(ctx, o.example, options...)
	case o.openapi != "":
		if o.schemaName == "" {
			return nil, errors.New("--schema is required with --openapi")
		}
		doc, err := schema.ReadFile(o.openapi)
		if err != nil {
			return nil, err
		}
		return formstate.Load(ctx, formstate.Request{OpenAPI: &doc, Schema: o.schemaName}, options...)
	default:
		doc, err := schema.ReadFile(o.definition)
		if err != nil {
			return nil, err
		}
		return formstate.Load(ctx, formstate.Request{Definition: &doc}, options...)
	}
}

func (o *sourceOptions) orchestratorOptions() ([]orchestrator.Option, error) {
	var options []orchestrator.Option
	if o.messagesDir != "" {
		info, err := os.Stat(o.messagesDir)
		if err != nil {
			return nil, fmt.Errorf("messages: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("messages: %s is not a directory", o.messagesDir)
		}
		options = append(options, orchestrator.WithMessagesFS(os.DirFS(o.messagesDir)))
	}
	if o.preset != "" {
		data, err := os.ReadFile(o.preset)
		if err != nil {
			return nil, fmt.Errorf("preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformers(preset))
	}
	return options, nil
}
