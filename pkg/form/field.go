package form

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// FieldConfig configures a FieldState. Validators run in the given order of
// registration; a later validator with a duplicate key replaces the earlier
// one in place.
type FieldConfig[M, V any] struct {
	Name         string
	InitialValue M
	Validators   []validation.Validator[M]
	// Transform is required when M and V differ.
	Transform *Transform[M, V]
	// Strategy defaults to DefaultStrategy.
	Strategy Strategy
}

// FieldState is the state of a single input. M is the model type committed
// after successful validation, V the view type the user edits.
type FieldState[M, V any] struct {
	id        string
	name      string
	transform Transform[M, V]
	hasParser bool
	strategy  Strategy
	events    observers

	mu                sync.Mutex
	parent            *Group
	initial           M
	model             M
	view              V
	dirty             bool
	touched           bool
	valid             bool
	validating        bool
	validationEnabled bool
	errors            map[string]bool
	keys              []string
	validators        map[string]validation.Validator[M]
	// generation increments on every validation run and reset; only the run
	// holding the current generation may commit.
	generation uint64
}

// NewField builds a field in its reset state.
func NewField[M, V any](cfg FieldConfig[M, V]) *FieldState[M, V] {
	transform, hasParser := resolveTransform(cfg.Name, cfg.Transform)
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = DefaultStrategy
	}

	f := &FieldState[M, V]{
		id:         uuid.NewString(),
		name:       cfg.Name,
		transform:  transform,
		hasParser:  hasParser,
		strategy:   strategy,
		initial:    cfg.InitialValue,
		validators: make(map[string]validation.Validator[M], len(cfg.Validators)),
	}
	for _, v := range cfg.Validators {
		f.putValidator(v)
	}
	f.resetLocked()
	return f
}

func (f *FieldState[M, V]) ID() string   { return f.id }
func (f *FieldState[M, V]) Name() string { return f.name }

func (f *FieldState[M, V]) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid
}

func (f *FieldState[M, V]) Invalid() bool { return !f.Valid() }

func (f *FieldState[M, V]) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

func (f *FieldState[M, V]) Pristine() bool { return !f.Dirty() }

func (f *FieldState[M, V]) Touched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

func (f *FieldState[M, V]) Untouched() bool { return !f.Touched() }

func (f *FieldState[M, V]) Validating() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validating
}

// ValidationEnabled reports whether the field has completed a validation
// since its last reset.
func (f *FieldState[M, V]) ValidationEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validationEnabled
}

// Value returns the model value.
func (f *FieldState[M, V]) Value() any {
	return f.ModelValue()
}

// ModelValue returns the last value that passed validation, or the initial
// value when none has.
func (f *FieldState[M, V]) ModelValue() M {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model
}

// ViewValue returns the value as currently edited.
func (f *FieldState[M, V]) ViewValue() V {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *FieldState[M, V]) InitialValue() M {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initial
}

// Error returns a copy of the per-rule failure flags.
func (f *FieldState[M, V]) Error() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.errors)
}

func (f *FieldState[M, V]) Parent() *Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parent
}

func (f *FieldState[M, V]) setParent(g *Group) {
	f.mu.Lock()
	f.parent = g
	f.mu.Unlock()
}

// Subscribe registers fn for every state change of the field.
func (f *FieldState[M, V]) Subscribe(fn Listener) (cancel func()) {
	return f.events.subscribe(fn)
}

// Validators returns the registered validators in order.
func (f *FieldState[M, V]) Validators() []validation.Validator[M] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderedValidators()
}

// Rules describes the registered validators in order.
func (f *FieldState[M, V]) Rules() []validation.Rule {
	validators := f.Validators()
	rules := make([]validation.Rule, 0, len(validators))
	for _, v := range validators {
		rules = append(rules, v.Rule())
	}
	return rules
}

// SetValidator registers v, replacing any validator with the same key.
func (f *FieldState[M, V]) SetValidator(v validation.Validator[M]) {
	f.mu.Lock()
	f.putValidator(v)
	f.mu.Unlock()
}

// RemoveValidator drops the validator registered under key along with its
// error flag.
func (f *FieldState[M, V]) RemoveValidator(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.validators[key]; !ok {
		return
	}
	delete(f.validators, key)
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool { return k == key })
	delete(f.errors, key)
	f.valid = !anyFailed(f.errors)
}

// Reset restores the initial value and clears every flag and error. Runs in
// flight when Reset is called never commit.
func (f *FieldState[M, V]) Reset() {
	f.mu.Lock()
	f.resetLocked()
	f.mu.Unlock()
	f.events.emit(Event{Kind: EventReset, Source: f, Valid: true})
}

func (f *FieldState[M, V]) resetLocked() {
	f.generation++
	f.valid = true
	f.dirty = false
	f.touched = false
	f.validating = false
	f.validationEnabled = false
	f.model = f.initial
	f.view = f.transform.Formatter(f.initial)
	f.errors = make(map[string]bool)
}

// SetValue assigns the model value directly and reformats the view value.
// It neither validates nor marks the field dirty. Runs in flight when
// SetValue is called never commit.
func (f *FieldState[M, V]) SetValue(value M) {
	f.mu.Lock()
	f.generation++
	f.validating = false
	f.model = value
	f.view = f.transform.Formatter(value)
	f.mu.Unlock()
	f.events.emit(Event{Kind: EventValue, Source: f, Valid: f.Valid()})
}

// OnChange records user input and lets the strategy decide whether to
// validate. It returns once any triggered validation has settled.
func (f *FieldState[M, V]) OnChange(ctx context.Context, value V) {
	f.mu.Lock()
	f.view = value
	f.dirty = true
	f.mu.Unlock()
	f.events.emit(Event{Kind: EventChange, Source: f, Valid: f.Valid()})

	f.strategy.OnChange(ctx, f)
}

// OnBlur marks the field touched and lets the strategy decide whether to
// validate.
func (f *FieldState[M, V]) OnBlur(ctx context.Context) {
	f.mu.Lock()
	f.touched = true
	f.mu.Unlock()
	f.events.emit(Event{Kind: EventBlur, Source: f, Valid: f.Valid()})

	f.strategy.OnBlur(ctx, f)
}

// Validate parses the view value, runs every validator concurrently and
// commits the joined verdict. When another run starts before this one
// settles, this run returns its own verdict without touching the field.
func (f *FieldState[M, V]) Validate(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.validating = true
	f.touched = true
	view := f.view
	validators := f.orderedValidators()
	f.mu.Unlock()
	f.events.emit(Event{Kind: EventValidating, Source: f})

	logger := zerolog.Ctx(ctx).With().
		Str("field", f.name).
		Str("field_id", f.id).
		Uint64("run", gen).
		Logger()
	logger.Debug().Int("validators", len(validators)).Msg("validation started")

	outcome := make(map[string]bool, len(validators)+1)
	candidate, err := f.parse(view)
	if err != nil {
		logger.Debug().Err(err).Msg("view value rejected by parser")
		outcome[ParseErrorKey] = true
		for _, v := range validators {
			outcome[v.Key] = false
		}
	} else {
		if f.hasParser {
			outcome[ParseErrorKey] = false
		}
		passed := runValidators(ctx, logger, validators, candidate)
		for i, v := range validators {
			outcome[v.Key] = !passed[i]
		}
	}
	valid := !anyFailed(outcome)
	elapsed := time.Since(start)

	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		logger.Debug().Bool("valid", valid).Msg("validation superseded")
		f.events.emit(Event{Kind: EventValidated, Source: f, Valid: valid, Duration: elapsed, Superseded: true})
		return valid
	}
	f.errors = outcome
	f.valid = valid
	if valid {
		f.model = candidate
	}
	f.validating = false
	f.validationEnabled = true
	f.mu.Unlock()

	logger.Debug().Bool("valid", valid).Dur("elapsed", elapsed).Msg("validation settled")
	f.events.emit(Event{Kind: EventValidated, Source: f, Valid: valid, Duration: elapsed})
	return valid
}

func (f *FieldState[M, V]) parse(view V) (model M, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("form: parser panicked: %v", r)
		}
	}()
	return f.transform.Parser(view)
}

func (f *FieldState[M, V]) putValidator(v validation.Validator[M]) {
	if _, exists := f.validators[v.Key]; !exists {
		f.keys = append(f.keys, v.Key)
	}
	f.validators[v.Key] = v
}

func (f *FieldState[M, V]) orderedValidators() []validation.Validator[M] {
	out := make([]validation.Validator[M], 0, len(f.keys))
	for _, key := range f.keys {
		out = append(out, f.validators[key])
	}
	return out
}

// runValidators fans out one goroutine per validator and waits for all of
// them. Errors and panics count as failures and are logged, so no goroutine
// returns an error: the errgroup is only the join barrier.
func runValidators[M any](ctx context.Context, logger zerolog.Logger, validators []validation.Validator[M], candidate M) []bool {
	passed := make([]bool, len(validators))
	var g errgroup.Group
	for i, v := range validators {
		g.Go(func() error {
			ok, err := v.Run(ctx, candidate)
			if err != nil {
				logger.Warn().Err(err).Str("rule", v.Key).Msg("validator returned an error")
			}
			passed[i] = ok
			return nil
		})
	}
	_ = g.Wait()
	return passed
}

func anyFailed(errs map[string]bool) bool {
	for _, failed := range errs {
		if failed {
			return true
		}
	}
	return false
}
