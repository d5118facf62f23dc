// Package terminal binds a form tree to interactive terminal prompts.
package terminal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
)

// Session prompts for every text control of a group until the group is
// valid.
type Session struct {
	driver      PromptDriver
	catalog     *messages.Catalog
	secrets     map[string]bool
	maxAttempts int
	theme       Theme
}

// New builds a session. Without WithPromptDriver it talks to the process
// terminal through survey.
func New(options ...Option) (*Session, error) {
	s := &Session{
		secrets: make(map[string]bool),
		theme:   defaultTheme,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	if s.catalog == nil {
		catalog, err := messages.New()
		if err != nil {
			return nil, err
		}
		s.catalog = catalog
	}
	return s, nil
}

// Run walks g depth first. Each control is prompted until it is valid, then
// the whole group is validated; controls still invalid at that point are
// prompted again. Values end up in the fields, read them with g.Values.
// Run stops with ctx.Err() once ctx is done, and with ErrUnpromptable when
// the group is invalid only because of fields without a text view.
func (s *Session) Run(ctx context.Context, g *form.Group) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := zerolog.Ctx(ctx).With().Str("group", g.Name()).Logger()

	if _, err := s.walk(ctx, g, "", false, nil); err != nil {
		return err
	}
	for pass := 1; !g.Validate(ctx); pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug().Int("pass", pass).Msg("group still invalid, prompting again")
		var skipped []string
		prompted, err := s.walk(ctx, g, "", true, &skipped)
		if err != nil {
			return err
		}
		if prompted == 0 {
			if len(skipped) == 0 {
				skipped = []string{g.Name()}
			}
			return fmt.Errorf("%w: %s", ErrUnpromptable, strings.Join(skipped, ", "))
		}
	}
	return nil
}

// walk prompts the controls below g and reports how many it prompted.
// Invalid children it cannot prompt are appended to skipped by dotted path.
func (s *Session) walk(ctx context.Context, g *form.Group, prefix string, onlyInvalid bool, skipped *[]string) (int, error) {
	if g.Parent() != nil {
		if err := s.driver.Info(ctx, s.theme.GroupPrefix+s.catalog.Label(g.Name())); err != nil {
			return 0, err
		}
	}
	prompted := 0
	for _, child := range g.Fields() {
		if onlyInvalid && child.Valid() {
			continue
		}
		path := child.Name()
		if prefix != "" {
			path = prefix + "." + path
		}
		switch typed := child.(type) {
		case *form.Group:
			n, err := s.walk(ctx, typed, path, onlyInvalid, skipped)
			prompted += n
			if err != nil {
				return prompted, err
			}
		case form.Control[string]:
			if err := s.prompt(ctx, typed, path); err != nil {
				return prompted, err
			}
			prompted++
		default:
			zerolog.Ctx(ctx).Debug().Str("field", path).Msg("skipping field without a text view")
			if skipped != nil && !child.Valid() {
				*skipped = append(*skipped, path)
			}
		}
	}
	return prompted, nil
}

func (s *Session) prompt(ctx context.Context, ctl form.Control[string], path string) error {
	label := s.catalog.Label(ctl.Name())
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		input, err := s.ask(ctx, ctl, label, s.secrets[path])
		if err != nil {
			return err
		}
		if s.commit(ctx, ctl, input) {
			return nil
		}

		msgs, err := s.catalog.Messages(ctl)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := s.driver.Info(ctx, s.theme.ErrorPrefix+msg); err != nil {
				return err
			}
		}
		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, path)
		}
	}
}

func (s *Session) ask(ctx context.Context, ctl form.Control[string], label string, secret bool) (string, error) {
	if current, ok := ctl.Value().(bool); ok {
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current})
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(answer), nil
	}
	cfg := InputConfig{Message: label, Default: ctl.ViewValue()}
	if secret {
		cfg.Default = ""
		return s.driver.Password(ctx, cfg)
	}
	return s.driver.Input(ctx, cfg)
}

// commit feeds input through the control's strategy like a user edit
// followed by leaving the input. When the strategy did not validate, the
// control is validated explicitly.
func (s *Session) commit(ctx context.Context, ctl form.Control[string], input string) bool {
	validated := false
	cancel := ctl.Subscribe(func(e form.Event) {
		if e.Kind == form.EventValidated && !e.Superseded && e.Source == form.FormObject(ctl) {
			validated = true
		}
	})
	ctl.OnChange(ctx, input)
	ctl.OnBlur(ctx)
	cancel()

	if !validated {
		return ctl.Validate(ctx)
	}
	return ctl.Valid()
}
