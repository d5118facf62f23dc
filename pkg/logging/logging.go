// Package logging builds the zerolog loggers used by the binaries. Library
// code never owns a logger: it logs through zerolog.Ctx, so attach the logger
// to a context with logger.WithContext.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config configures New.
type Config struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Format defaults to console.
	Format Format
	// Output defaults to stderr.
	Output io.Writer
	// NoColor disables ANSI colors in console output.
	NoColor bool
}

// New builds a logger from cfg.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	switch cfg.Format {
	case "", FormatConsole:
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel maps a level name to a zerolog level. The empty string is info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", name)
	}
	return level, nil
}
