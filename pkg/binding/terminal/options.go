package terminal

import "github.com/goliatone/go-formstate/pkg/messages"

// Theme holds the prefixes printed in front of info lines.
type Theme struct {
	GroupPrefix string
	ErrorPrefix string
}

var defaultTheme = Theme{GroupPrefix: "== ", ErrorPrefix: "  ! "}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithCatalog sets the catalog used for labels and error messages.
func WithCatalog(catalog *messages.Catalog) Option {
	return func(s *Session) {
		if catalog != nil {
			s.catalog = catalog
		}
	}
}

// WithSecrets marks fields whose input must not be echoed, by dotted path
// below the prompted group ("password", "owner.password").
func WithSecrets(names map[string]bool) Option {
	return func(s *Session) {
		for name, secret := range names {
			if secret {
				s.secrets[name] = true
			}
		}
	}
}

// WithMaxAttempts bounds how often a single field is prompted per pass.
// Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.maxAttempts = n
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}
