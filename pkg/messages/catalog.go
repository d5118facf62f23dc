// Package messages turns a field's failed rule keys into human readable
// messages using pongo2 templates.
package messages

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Fallback renders any key without a registered template.
const Fallback = "{{ label }} is invalid"

var ErrEmptyKey = errors.New("messages: template key is empty")

// Subject is what the catalog needs from a field. Every form.Control
// satisfies it; subjects that also implement form.RuleSet get their messages
// in rule order and with rule parameters.
type Subject interface {
	Name() string
	Error() map[string]bool
}

// Option configures a Catalog before its templates are compiled.
type Option func(*config)

type config struct {
	sources map[string]string
	files   fs.FS
	labels  map[string]string
}

// WithTemplate registers or overrides the template for key.
func WithTemplate(key, source string) Option {
	return func(cfg *config) {
		cfg.sources[strings.TrimSpace(key)] = source
	}
}

// WithFS loads every "<key>.tpl" file at the root of files, overriding the
// embedded defaults and any WithTemplate source for the same key.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithLabels maps field names to display labels.
func WithLabels(labels map[string]string) Option {
	return func(cfg *config) {
		maps.Copy(cfg.labels, labels)
	}
}

// Catalog renders messages for failed rules. It is safe for concurrent use.
type Catalog struct {
	set       *pongo2.TemplateSet
	fallback  *pongo2.Template
	labels    map[string]string
	mu        sync.RWMutex
	templates map[string]*pongo2.Template
}

// New compiles the default templates plus any overrides.
func New(options ...Option) (*Catalog, error) {
	cfg := &config{
		sources: make(map[string]string),
		labels:  make(map[string]string),
	}
	if err := loadFiles(EmbeddedFS(), cfg.sources); err != nil {
		return nil, err
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.files != nil {
		if err := loadFiles(cfg.files, cfg.sources); err != nil {
			return nil, err
		}
	}

	c := &Catalog{
		set:       pongo2.NewSet("formstate-messages", pongo2.MustNewLocalFileSystemLoader("")),
		labels:    cfg.labels,
		templates: make(map[string]*pongo2.Template, len(cfg.sources)),
	}
	fallback, err := c.set.FromString(Fallback)
	if err != nil {
		return nil, fmt.Errorf("messages: compile fallback: %w", err)
	}
	c.fallback = fallback
	for key, source := range cfg.sources {
		if err := c.Register(key, source); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func loadFiles(files fs.FS, sources map[string]string) error {
	matches, err := fs.Glob(files, "*.tpl")
	if err != nil {
		return fmt.Errorf("messages: list templates: %w", err)
	}
	for _, name := range matches {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("messages: read %s: %w", name, err)
		}
		key := strings.TrimSuffix(path.Base(name), ".tpl")
		sources[key] = strings.TrimRight(string(data), "\r\n")
	}
	return nil
}

// Register compiles source and stores it under key.
func (c *Catalog) Register(key, source string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	tmpl, err := c.set.FromString(source)
	if err != nil {
		return fmt.Errorf("messages: compile template %q: %w", key, err)
	}
	c.mu.Lock()
	c.templates[key] = tmpl
	c.mu.Unlock()
	return nil
}

// Label returns the display label for a field name. Unlabelled names are
// humanized: "firstName" and "first_name" both become "First name".
func (c *Catalog) Label(name string) string {
	if label, ok := c.labels[name]; ok && label != "" {
		return label
	}
	return humanize(name)
}

// Message renders the template registered for key with data.
func (c *Catalog) Message(key string, data map[string]any) (string, error) {
	c.mu.RLock()
	tmpl, ok := c.templates[key]
	c.mu.RUnlock()
	if !ok {
		tmpl = c.fallback
	}

	ctx := pongo2.Context{"key": key}
	for k, v := range data {
		ctx[k] = normalize(v)
	}
	out, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("messages: render %q: %w", key, err)
	}
	return html.UnescapeString(out), nil
}

// Messages renders one message per failed key of subject. A parse failure
// comes first, then rule failures in rule order, then any other failed keys
// sorted by name.
func (c *Catalog) Messages(subject Subject) ([]string, error) {
	failed := subject.Error()
	params := make(map[string]map[string]any)
	order := make([]string, 0, len(failed))
	if failed[form.ParseErrorKey] {
		order = append(order, form.ParseErrorKey)
	}
	var rules []validation.Rule
	if set, ok := subject.(form.RuleSet); ok {
		rules = set.Rules()
	}
	for _, rule := range rules {
		params[rule.Key] = rule.Params
		if failed[rule.Key] && !slices.Contains(order, rule.Key) {
			order = append(order, rule.Key)
		}
	}
	var extra []string
	for key, isFailed := range failed {
		if isFailed && !slices.Contains(order, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	out := make([]string, 0, len(order))
	for _, key := range order {
		data := make(map[string]any, len(params[key])+2)
		maps.Copy(data, params[key])
		data["name"] = subject.Name()
		data["label"] = c.Label(subject.Name())
		msg, err := c.Message(key, data)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// normalize prints whole floats without a fractional part.
func normalize(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}

func humanize(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		b.WriteRune(unicode.ToLower(r))
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	words := strings.Fields(b.String())
	if len(words) == 0 {
		return name
	}
	label := strings.Join(words, " ")
	first := []rune(label)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}
