package form

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// MountOptions tune what Unmount does. Options set on the scope (WithGroup)
// apply to every object mounted in it; per-mount options can only add to
// them.
type MountOptions struct {
	// DisableResetOnUnmount keeps the object's state when it is unmounted.
	DisableResetOnUnmount bool
	// DisableRemoveOnUnmount keeps the object attached after unmount.
	DisableRemoveOnUnmount bool
}

// MountOption mutates MountOptions.
type MountOption func(*MountOptions)

// DisableResetOnUnmount keeps state across unmounts.
func DisableResetOnUnmount() MountOption {
	return func(o *MountOptions) { o.DisableResetOnUnmount = true }
}

// DisableRemoveOnUnmount keeps the object attached across unmounts.
func DisableRemoveOnUnmount() MountOption {
	return func(o *MountOptions) { o.DisableRemoveOnUnmount = true }
}

// Unmount undoes a Mount. Calling it more than once is a no-op, so it can be
// deferred and also called early.
type Unmount func()

type scopeKey struct{}

type scope struct {
	group *Group
	opts  MountOptions
}

// WithGroup returns a context whose enclosing group is g.
func WithGroup(ctx context.Context, g *Group, opts ...MountOption) context.Context {
	sc := scope{group: g}
	for _, opt := range opts {
		if opt != nil {
			opt(&sc.opts)
		}
	}
	return context.WithValue(ctx, scopeKey{}, sc)
}

// GroupFrom returns the nearest enclosing group stored in ctx.
func GroupFrom(ctx context.Context) (*Group, bool) {
	sc, ok := scopeFrom(ctx)
	if !ok {
		return nil, false
	}
	return sc.group, true
}

func scopeFrom(ctx context.Context) (scope, bool) {
	if ctx == nil {
		return scope{}, false
	}
	sc, ok := ctx.Value(scopeKey{}).(scope)
	if !ok || sc.group == nil {
		return scope{}, false
	}
	return sc, true
}

// Mount attaches obj to the enclosing group of ctx. The returned Unmount
// resets and removes it again, subject to the scope and mount options.
func Mount(ctx context.Context, obj FormObject, opts ...MountOption) (Unmount, error) {
	sc, ok := scopeFrom(ctx)
	if !ok {
		return nil, ErrNoGroup
	}
	if err := sc.group.AddField(obj); err != nil {
		return nil, err
	}

	resolved := sc.opts
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}

	logger := zerolog.Ctx(ctx).With().
		Str("group", sc.group.Name()).
		Str("object", obj.Name()).
		Str("object_id", obj.ID()).
		Logger()
	logger.Debug().Msg("mounted")

	return Unmount(sync.OnceFunc(func() {
		switch {
		case !resolved.DisableRemoveOnUnmount && !resolved.DisableResetOnUnmount:
			sc.group.RemoveField(obj)
		case !resolved.DisableRemoveOnUnmount:
			sc.group.Detach(obj)
		case !resolved.DisableResetOnUnmount:
			obj.Reset()
		}
		logger.Debug().
			Bool("reset", !resolved.DisableResetOnUnmount).
			Bool("removed", !resolved.DisableRemoveOnUnmount).
			Msg("unmounted")
	})), nil
}

// MountRef resolves name through the enclosing group (see Group.Resolve) and
// mounts the result.
func MountRef(ctx context.Context, name string, opts ...MountOption) (FormObject, Unmount, error) {
	sc, ok := scopeFrom(ctx)
	if !ok {
		return nil, nil, ErrNoGroup
	}
	obj, err := sc.group.Resolve(name)
	if err != nil {
		return nil, nil, err
	}
	unmount, err := Mount(ctx, obj, opts...)
	if err != nil {
		return nil, nil, err
	}
	return obj, unmount, nil
}

// Enter mounts g into the enclosing group, when there is one, and returns a
// context in which g is the enclosing group. opts govern g's own unmount and
// are the scope options of the returned context. Without an enclosing group
// g becomes the root scope and the returned Unmount does nothing.
func Enter(ctx context.Context, g *Group, opts ...MountOption) (context.Context, Unmount, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	unmount := Unmount(func() {})
	if _, ok := scopeFrom(ctx); ok {
		var err error
		unmount, err = Mount(ctx, g, opts...)
		if err != nil {
			return nil, nil, err
		}
	}
	return WithGroup(ctx, g, opts...), unmount, nil
}
