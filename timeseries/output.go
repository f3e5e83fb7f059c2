package timeseries

import (
	"github.com/tsflow/engine/enginetime"
)

// ValueSource is anything an Input can bind to: a concrete Output or a REF
// standing in for one. Binding to either is observably identical to a
// downstream Input (spec.md §8's REF round-trip law).
type ValueSource[V any] interface {
	// Value returns the current full value.
	Value() V
	// LastModifiedTime returns the engine time this source last ticked.
	LastModifiedTime() enginetime.Time
	// Valid returns whether the source has ever produced a value.
	Valid() bool
	addObserver(Observer)
	removeObserver(Observer)
}

// Output is the producer side of a time-series (spec.md §3). Once Valid
// becomes true it stays true until an explicit Invalidate; LastModified is
// updated iff the call to Set/Tick represents a genuine change this cycle;
// notifying observers within one cycle is idempotent (observerSet
// deduplicates by Observer identity, and Output only notifies once per
// Set/Tick call).
type Output[V any] struct {
	base
	value V
	// equals decides whether two values are the same for change detection.
	// nil means "always consider it changed" (used by containers, such as
	// TSS/TSD, that manage their own change detection and only ever call
	// Set when something genuinely moved).
	equals func(a, b V) bool
}

// NewOutput returns an empty, invalid output. equals may be nil.
func NewOutput[V any](equals func(a, b V) bool) *Output[V] {
	return &Output[V]{base: newBase(), equals: equals}
}

// Value returns the output's current value (valid or not).
func (o *Output[V]) Value() V {
	return o.value
}

// Set writes value at time now. If equals is set and reports the new value
// equal to the previous one, this is a no-op (no tick, no notification):
// this is what makes last_modified_time update "iff value changed". If
// equals is nil, every call to Set is treated as a change.
func (o *Output[V]) Set(value V, now enginetime.Time) {
	changed := o.equals == nil || !o.valid || !o.equals(o.value, value)
	o.value = value
	if changed {
		o.tick(now)
	} else {
		o.valid = true
	}
}

// Tick marks the output as modified at now with its current value
// unchanged (used for containers like TSS/TSD where the "value" changing
// is a mutation of shared internal state, not a Set call).
func (o *Output[V]) Tick(now enginetime.Time) {
	o.tick(now)
}

// Observers returns a snapshot of the currently registered observers, for
// diagnostics and for nested-node re-parenting logic.
func (o *Output[V]) Observers() []Observer {
	result := make([]Observer, len(o.observers.observers))
	copy(result, o.observers.observers)
	return result
}
