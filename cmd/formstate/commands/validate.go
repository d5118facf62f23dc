package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
)

// report is what validate prints.
type report struct {
	Valid  bool                `yaml:"valid" json:"valid"`
	Values map[string]any      `yaml:"values" json:"values"`
	Errors map[string][]string `yaml:"errors,omitempty" json:"errors,omitempty"`
}

func newValidateCommand() *cobra.Command {
	var (
		source      sourceOptions
		valuesPath  string
		output      string
		showSecrets bool
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a values file against a form",
		Long: `Fill a form from a YAML or JSON values file, validate it and print a report
with the committed values and a message for every failed rule.

The command fails with exit status 2 when the form is invalid. With --watch
it keeps running and prints a new report every time the values file is saved.`,
		Example: `  # Validate values against a definition
  formstate validate --definition signup.yaml --values answers.yaml

  # Read values from stdin
  echo '{"email": "ada@example.com"}' | formstate validate --example contact --values -

  # Re-validate on every save
  formstate validate --example signup --values answers.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutput(output)
			if err != nil {
				return err
			}
			if watch && valuesPath == "-" {
				return errors.New("--watch needs a values file, not stdin")
			}

			check := func(ctx context.Context) (bool, error) {
				values, err := readValues(cmd.InOrStdin(), valuesPath)
				if err != nil {
					return false, err
				}
				return validateValues(ctx, cmd.OutOrStdout(), &source, values, format, showSecrets)
			}

			ctx := cmd.Context()
			if !watch {
				valid, err := check(ctx)
				if err != nil {
					return err
				}
				if !valid {
					return ErrInvalid
				}
				return nil
			}

			watcher, err := newFileWatcher(valuesPath)
			if err != nil {
				return err
			}
			defer watcher.Close()

			rerun := func(ctx context.Context) {
				if _, err := check(ctx); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("validation failed")
				}
			}
			rerun(ctx)
			return watcher.Run(ctx, rerun)
		},
	}

	source.bind(cmd)
	cmd.Flags().StringVar(&valuesPath, "values", "", "values file (YAML or JSON), - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", string(outputYAML), "output format (yaml, json)")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secret values instead of masking them")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate whenever the values file changes")
	_ = cmd.MarkFlagRequired("values")

	return cmd
}

// validateValues loads a fresh form, fills it with values and prints the
// report to out.
func validateValues(ctx context.Context, out io.Writer, source *sourceOptions, values map[string]any, format outputFormat, showSecrets bool) (bool, error) {
	res, err := source.load(ctx)
	if err != nil {
		return false, err
	}
	defer res.Close()

	if err := formstate.Fill(ctx, res.Group, values); err != nil {
		return false, fmt.Errorf("fill: %w", err)
	}
	valid := res.Group.Validate(ctx)
	zerolog.Ctx(ctx).Info().
		Str("form", res.Definition.Name).
		Bool("valid", valid).
		Msg("form validated")

	rep := report{Valid: valid, Values: res.Group.Values()}
	if !showSecrets {
		rep.Values = maskValues(rep.Values, res.Secrets)
	}
	if !valid {
		rep.Errors, err = collectMessages(res.Catalog, res.Group, "")
		if err != nil {
			return false, err
		}
	}
	if err := encode(out, format, rep); err != nil {
		return false, err
	}
	return valid, nil
}

func readValues(stdin io.Reader, path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse values: %w", err)
	}
	if values == nil {
		return nil, errors.New("parse values: expected a mapping at the top level")
	}
	return values, nil
}

// collectMessages renders the messages of every invalid field, keyed by its
// dotted path below g.
func collectMessages(catalog *messages.Catalog, g *form.Group, prefix string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, child := range g.Fields() {
		path := child.Name()
		if prefix != "" {
			path = prefix + "." + path
		}
		switch typed := child.(type) {
		case *form.Group:
			nested, err := collectMessages(catalog, typed, path)
			if err != nil {
				return nil, err
			}
			maps.Copy(out, nested)
		case messages.Subject:
			if child.Valid() {
				continue
			}
			msgs, err := catalog.Messages(typed)
			if err != nil {
				return nil, err
			}
			if len(msgs) > 0 {
				out[path] = msgs
			}
		}
	}
	return out, nil
}
