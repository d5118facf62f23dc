package form

import (
	"context"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/goliatone/go-formstate/pkg/form")

// GroupConfig configures a Group. Fields are remembered for Resolve but are
// not attached: they join the group when added or mounted.
type GroupConfig struct {
	Name   string
	Fields []FormObject
}

type child struct {
	obj    FormObject
	cancel func()
}

// Group composes fields and nested groups. Every aggregate is derived from
// the children attached at the time of the call.
type Group struct {
	id     string
	name   string
	events observers

	mu       sync.RWMutex
	parent   *Group
	children []child
	cache    []FormObject
}

// NewGroup builds an empty group.
func NewGroup(cfg GroupConfig) *Group {
	cache := make([]FormObject, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if f != nil {
			cache = append(cache, f)
		}
	}
	return &Group{
		id:    uuid.NewString(),
		name:  cfg.Name,
		cache: cache,
	}
}

func (g *Group) ID() string   { return g.id }
func (g *Group) Name() string { return g.name }

// Fields returns the attached children in attach order.
func (g *Group) Fields() []FormObject {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]FormObject, len(g.children))
	for i, c := range g.children {
		out[i] = c.obj
	}
	return out
}

// Valid reports whether every child is valid. An empty group is valid.
func (g *Group) Valid() bool {
	for _, c := range g.Fields() {
		if !c.Valid() {
			return false
		}
	}
	return true
}

func (g *Group) Invalid() bool { return !g.Valid() }

// Dirty reports whether any child is dirty.
func (g *Group) Dirty() bool {
	return g.some(FormObject.Dirty)
}

func (g *Group) Pristine() bool { return !g.Dirty() }

// Touched reports whether any child is touched.
func (g *Group) Touched() bool {
	return g.some(FormObject.Touched)
}

func (g *Group) Untouched() bool { return !g.Touched() }

// Validating reports whether any child has a validation in flight.
func (g *Group) Validating() bool {
	return g.some(FormObject.Validating)
}

func (g *Group) some(pred func(FormObject) bool) bool {
	for _, c := range g.Fields() {
		if pred(c) {
			return true
		}
	}
	return false
}

// Value returns Values as any, so groups nest inside other groups.
func (g *Group) Value() any {
	return g.Values()
}

// Values maps each child name to its value. Siblings sharing a name
// overwrite each other: the child attached last wins.
func (g *Group) Values() map[string]any {
	fields := g.Fields()
	out := make(map[string]any, len(fields))
	for _, c := range fields {
		out[c.Name()] = c.Value()
	}
	return out
}

// Errors maps each child name to its error flags; nested groups contribute
// nested maps. Duplicate names follow the same rule as Values.
func (g *Group) Errors() map[string]any {
	fields := g.Fields()
	out := make(map[string]any, len(fields))
	for _, c := range fields {
		switch typed := c.(type) {
		case *Group:
			out[c.Name()] = typed.Errors()
		case interface{ Error() map[string]bool }:
			out[c.Name()] = typed.Error()
		}
	}
	return out
}

// Reset resets every attached child.
func (g *Group) Reset() {
	for _, c := range g.Fields() {
		c.Reset()
	}
}

// Validate validates all children concurrently and reports whether every
// one of them passed.
func (g *Group) Validate(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	fields := g.Fields()
	results := make([]bool, len(fields))

	ctx, span := tracer.Start(ctx, "form.group.validate", trace.WithAttributes(
		attribute.String("form.group", g.name),
		attribute.Int("form.children", len(fields)),
	))
	defer span.End()

	// Children report failure through their verdicts; eg only joins them.
	var eg errgroup.Group
	for i, c := range fields {
		eg.Go(func() error {
			results[i] = c.Validate(ctx)
			return nil
		})
	}
	_ = eg.Wait()

	valid := true
	for _, ok := range results {
		valid = valid && ok
	}
	span.SetAttributes(attribute.Bool("form.valid", valid))
	zerolog.Ctx(ctx).Debug().
		Str("group", g.name).
		Str("group_id", g.id).
		Int("children", len(fields)).
		Bool("valid", valid).
		Msg("group validated")
	return valid
}

func (g *Group) Parent() *Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.parent
}

func (g *Group) setParent(parent *Group) {
	g.mu.Lock()
	g.parent = parent
	g.mu.Unlock()
}

// Subscribe registers fn for changes of the group and of every attached
// descendant.
func (g *Group) Subscribe(fn Listener) (cancel func()) {
	return g.events.subscribe(fn)
}

// AddField attaches obj and sets its parent to g. The same object may be
// attached more than once; each attachment is a separate entry.
func (g *Group) AddField(obj FormObject) error {
	if obj == nil {
		return ErrNilField
	}
	if sub, ok := obj.(*Group); ok {
		for ancestor := g; ancestor != nil; ancestor = ancestor.Parent() {
			if ancestor == sub {
				return ErrCycle
			}
		}
	}

	cancel := obj.Subscribe(g.events.emit)
	g.mu.Lock()
	g.children = append(g.children, child{obj: obj, cancel: cancel})
	g.mu.Unlock()
	obj.setParent(g)

	g.events.emit(Event{Kind: EventAttach, Source: obj, Valid: obj.Valid()})
	return nil
}

// RemoveField resets obj, clears its parent and detaches it. Matching is by
// identity, so a different child with the same name stays attached. It
// reports whether obj was attached.
func (g *Group) RemoveField(obj FormObject) bool {
	if obj == nil || !g.contains(obj) {
		return false
	}
	obj.Reset()
	return g.Detach(obj)
}

// Detach removes every attachment of obj without resetting it.
func (g *Group) Detach(obj FormObject) bool {
	if obj == nil {
		return false
	}
	g.mu.Lock()
	kept := g.children[:0:0]
	var removed []child
	for _, c := range g.children {
		if c.obj == obj {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	g.children = kept
	g.mu.Unlock()

	if len(removed) == 0 {
		return false
	}
	for _, c := range removed {
		c.cancel()
	}
	if obj.Parent() == g {
		obj.setParent(nil)
	}
	g.events.emit(Event{Kind: EventDetach, Source: obj, Valid: obj.Valid()})
	return true
}

func (g *Group) contains(obj FormObject) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.children {
		if c.obj == obj {
			return true
		}
	}
	return false
}

// FindFieldByName returns the attached child called name. With duplicate
// names the child attached last wins, consistent with Values.
func (g *Group) FindFieldByName(name string) (FormObject, bool) {
	return lastNamed(g.Fields(), name)
}

// Resolve turns a string reference into a form object, looking first at the
// fields the group was configured with and then at attached children. A miss
// returns a *LookupError wrapping ErrFieldNotFound.
func (g *Group) Resolve(name string) (FormObject, error) {
	g.mu.RLock()
	cache := append([]FormObject(nil), g.cache...)
	g.mu.RUnlock()

	if obj, ok := lastNamed(cache, name); ok {
		return obj, nil
	}
	fields := g.Fields()
	if obj, ok := lastNamed(fields, name); ok {
		return obj, nil
	}
	return nil, &LookupError{
		Group:      g.name,
		Name:       name,
		Suggestion: suggest(name, append(cache, fields...)),
	}
}

func lastNamed(objs []FormObject, name string) (FormObject, bool) {
	for i := len(objs) - 1; i >= 0; i-- {
		if objs[i].Name() == name {
			return objs[i], true
		}
	}
	return nil, false
}

// suggest picks the closest known name within half the requested name's
// length in edits (at least one).
func suggest(name string, objs []FormObject) string {
	limit := max(len(name)/2, 1)
	best, bestDist := "", limit+1
	for _, obj := range objs {
		d := levenshtein.ComputeDistance(name, obj.Name())
		if d < bestDist {
			best, bestDist = obj.Name(), d
		}
	}
	return best
}
