package timeseries

import (
	"github.com/tsflow/engine/enginetime"
)

// Ref is a first-class, rebindable handle to an Output (spec.md §4.7). It
// is itself a ValueSource (so Inputs bind to the REF, not to whatever it
// currently targets) and an Observer of its current target (so it can
// relay target ticks to its own observers transparently).
//
// Resolves spec.md §12's open question #3 (switch-over-REF double tick):
// Ref only ever ticks once per engine time — rebinding and a
// target-tick-forwarded-this-cycle collapse into the single
// lastModified == now state, with Rebind's own tick taking priority if
// both happen in the same cycle (checked via the guard in NotifyModified).
type Ref[V any] struct {
	base
	target ValueSource[V]
}

// NewRef returns a Ref with no target bound yet.
func NewRef[V any]() *Ref[V] {
	return &Ref[V]{base: newBase()}
}

// Target returns the output currently pointed to, or nil.
func (r *Ref[V]) Target() ValueSource[V] {
	return r.target
}

// Rebind points the Ref at a new target at time now, unsubscribing from
// the previous target and subscribing to the new one, and ticks the Ref
// itself so bound Inputs observe a modification this cycle — this is how
// switch/map rewire downstream graphs without the downstream ever
// re-subscribing (spec.md §4.5.5, §4.7).
func (r *Ref[V]) Rebind(target ValueSource[V], now enginetime.Time) {
	if r.target != nil {
		r.target.removeObserver(r)
	}
	r.target = target
	if target != nil {
		target.addObserver(r)
	}
	r.tick(now)
}

// NotifyModified implements Observer: called when the current target
// ticks. The Ref relays the tick to its own observers, merging with any
// rebind that happened the same cycle into a single observable tick.
func (r *Ref[V]) NotifyModified(now enginetime.Time) {
	if r.lastModified == now {
		// already ticked this cycle (a Rebind happened), nothing to merge
		return
	}
	r.tick(now)
}

// Value dereferences the Ref, yielding the target's current value, or the
// zero value of V if unbound.
func (r *Ref[V]) Value() V {
	if r.target == nil {
		var zero V
		return zero
	}
	return r.target.Value()
}

// Valid reports whether the Ref is bound to a target that currently holds
// a value.
func (r *Ref[V]) Valid() bool {
	return r.valid && r.target != nil && r.target.Valid()
}
