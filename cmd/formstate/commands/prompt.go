package commands

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/binding/terminal"
)

// promptDriver builds the driver prompt sessions talk to.
var promptDriver = func(cmd *cobra.Command) terminal.PromptDriver {
	return terminal.NewSurveyDriver(cmd.ErrOrStderr())
}

func newPromptCommand() *cobra.Command {
	var (
		source      sourceOptions
		output      string
		maxAttempts int
		showSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill a form interactively",
		Long: `Ask for every field of a form until the whole form is valid, then print
the committed values. Invalid answers are explained and asked again.

Prompts and messages go to stderr, the values to stdout.`,
		Example: `  # Prompt for a bundled example
  formstate prompt --example signup

  # Prompt for an OpenAPI component schema and print JSON
  formstate prompt --openapi petstore.yaml --schema Pet --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutput(output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := source.load(ctx)
			if err != nil {
				return err
			}
			defer res.Close()

			err = formstate.Prompt(ctx, res,
				terminal.WithPromptDriver(promptDriver(cmd)),
				terminal.WithMaxAttempts(maxAttempts),
			)
			if err != nil {
				return err
			}

			values := res.Group.Values()
			if !showSecrets {
				values = maskValues(values, res.Secrets)
			}
			return encode(cmd.OutOrStdout(), format, values)
		},
	}

	source.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", string(outputYAML), "output format (yaml, json)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "give up after this many invalid answers per field (0 = never)")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secret values instead of masking them")

	return cmd
}
