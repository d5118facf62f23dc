// Package commands implements the formstate command line.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/binding/terminal"
	"github.com/goliatone/go-formstate/pkg/logging"
)

// Environment variables that override flag defaults.
const (
	EnvLogLevel  = "FORMSTATE_LOG_LEVEL"
	EnvLogFormat = "FORMSTATE_LOG_FORMAT"
)

// ErrInvalid is returned by commands that found the form invalid.
var ErrInvalid = errors.New("form is invalid")

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, terminal.ErrAborted), errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, ErrInvalid):
		return 2
	default:
		return 1
	}
}

type globalOptions struct {
	logLevel  string
	logFormat string
}

// environment holds the flag defaults read from the process environment.
type environment struct {
	LogLevel  string `env:"FORMSTATE_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"FORMSTATE_LOG_FORMAT" envDefault:"console"`
}

func loadEnvironment() environment {
	cfg, err := env.ParseAs[environment]()
	if err != nil {
		return environment{LogLevel: "warn", LogFormat: string(logging.FormatConsole)}
	}
	return cfg
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	global := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "formstate",
		Short: "Load, inspect, fill and validate forms from the terminal",
		Long: `formstate builds live forms from YAML definitions or OpenAPI component
schemas and drives them from the command line.

Commands:
  - prompt    ask for every field interactively until the form is valid
  - validate  fill a form from a values file and report what fails
  - inspect   print the form tree with its rules and state
  - examples  list the bundled example definitions`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Config{
				Level:  global.logLevel,
				Format: logging.Format(global.logFormat),
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}

	defaults := loadEnvironment()
	rootCmd.PersistentFlags().StringVar(&global.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error); env "+EnvLogLevel)
	rootCmd.PersistentFlags().StringVar(&global.logFormat, "log-format", defaults.LogFormat, "log format (console, json); env "+EnvLogFormat)

	rootCmd.AddCommand(newPromptCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newExamplesCommand())

	return rootCmd
}
