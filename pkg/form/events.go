package form

import (
	"sync"
	"time"
)

// EventKind identifies a state transition.
type EventKind string

const (
	EventChange     EventKind = "change"
	EventBlur       EventKind = "blur"
	EventValidating EventKind = "validating"
	EventValidated  EventKind = "validated"
	EventReset      EventKind = "reset"
	EventValue      EventKind = "value"
	EventAttach     EventKind = "attach"
	EventDetach     EventKind = "detach"
)

// Event is delivered to listeners after the state change it describes has
// been applied. Source is the object that changed; groups forward child
// events unchanged, so Source may be a descendant of the group the listener
// subscribed to.
type Event struct {
	Kind   EventKind
	Source FormObject
	// Valid and Duration are set for EventValidated.
	Valid    bool
	Duration time.Duration
	// Superseded marks a run whose verdict was discarded because a newer
	// run started before it settled.
	Superseded bool
}

// Listener receives events synchronously, outside of any state lock.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

type observers struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

func (o *observers) subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	o.mu.Lock()
	o.next++
	id := o.next
	o.subs = append(o.subs, subscription{id: id, fn: fn})
	o.mu.Unlock()

	return sync.OnceFunc(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, sub := range o.subs {
			if sub.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	})
}

func (o *observers) emit(evt Event) {
	o.mu.Lock()
	subs := append([]subscription(nil), o.subs...)
	o.mu.Unlock()
	for _, sub := range subs {
		sub.fn(evt)
	}
}
