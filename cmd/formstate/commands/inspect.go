package commands

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/schema"
)

func newInspectCommand() *cobra.Command {
	var (
		source     sourceOptions
		valuesPath string
		runChecks  bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the form tree",
		Long: `Print the live form tree built from a definition: groups, fields, their
rules and their current state. With --values the form is filled first, and
with --validate every field is validated so the error flags are populated.`,
		Example: `  # Show the rules derived from an OpenAPI schema
  formstate inspect --openapi petstore.yaml --schema Pet

  # Show the state after filling and validating
  formstate inspect --example signup --values answers.yaml --validate`,
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

			if valuesPath != "" {
				values, err := readValues(cmd.InOrStdin(), valuesPath)
				if err != nil {
					return err
				}
				if err := formstate.Fill(ctx, res.Group, values); err != nil {
					return err
				}
			}
			if runChecks {
				res.Group.Validate(ctx)
			}

			tree := maskNode(schema.Describe(res.Group), res.Secrets)
			return encode(cmd.OutOrStdout(), format, tree)
		},
	}

	source.bind(cmd)
	cmd.Flags().StringVar(&valuesPath, "values", "", "values file (YAML or JSON) to fill in first, - for stdin")
	cmd.Flags().BoolVar(&runChecks, "validate", false, "validate the form before printing it")
	cmd.Flags().StringVarP(&output, "output", "o", string(outputYAML), "output format (yaml, json)")

	return cmd
}
