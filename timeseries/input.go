package timeseries

import (
	"github.com/tsflow/engine/enginetime"
)

// Input is the consumer side of a time-series (spec.md §3). It observes a
// bound ValueSource, may be active or passive, and supports lazy sampling
// via sampledTime.
type Input[V any] struct {
	bound       ValueSource[V]
	active      bool
	sampledTime enginetime.Time
	observer    Observer
}

// NewInput returns an unbound, active input observed by observer (normally
// the owning Node's activation adapter).
func NewInput[V any](observer Observer) *Input[V] {
	return &Input[V]{active: true, observer: observer, sampledTime: enginetime.MinTime}
}

// Bind attaches the input to source, registering itself (not the owning
// node's trigger directly) as the observer so source's ticks pass through
// the active filter before reaching the owning node. Binding to a
// REF or to a concrete Output is observably identical downstream (spec.md
// §8).
func (i *Input[V]) Bind(source ValueSource[V]) {
	if i.bound != nil {
		i.bound.removeObserver(i)
	}
	i.bound = source
	if source != nil {
		source.addObserver(i)
	}
}

// Unbind detaches the input from its current source, if any.
func (i *Input[V]) Unbind() {
	if i.bound != nil {
		i.bound.removeObserver(i)
		i.bound = nil
	}
}

// NotifyModified implements Observer: it is invoked whenever the bound
// source ticks. An inactive input swallows the notification rather than
// forwarding it, so toggling SetActive(false) genuinely stops the owning
// node from waking up on this input alone.
func (i *Input[V]) NotifyModified(now enginetime.Time) {
	if i.active && i.observer != nil {
		i.observer.NotifyModified(now)
	}
}

// Bound returns the currently bound source, or nil.
func (i *Input[V]) Bound() ValueSource[V] {
	return i.bound
}

// SetActive toggles whether a tick on the bound source schedules the
// owning node. The active flag itself survives unbind/rebind (spec.md §12
// open-question #1 resolution: re-parenting never silently resets it).
func (i *Input[V]) SetActive(active bool) {
	i.active = active
}

// Active reports whether this input currently participates in triggering
// its owning node's evaluation.
func (i *Input[V]) Active() bool {
	return i.active
}

// Modified reports whether the bound source ticked exactly at now and this
// input is active — the universal invariant from spec.md §8.
func (i *Input[V]) Modified(now enginetime.Time) bool {
	return i.bound != nil && i.active && i.bound.LastModifiedTime() == now
}

// Valid reports whether the bound source has ever produced a value.
func (i *Input[V]) Valid() bool {
	return i.bound != nil && i.bound.Valid()
}

// Value returns the bound source's current full value, the zero value of
// V if unbound.
func (i *Input[V]) Value() V {
	if i.bound == nil {
		var zero V
		return zero
	}
	return i.bound.Value()
}

// Sample marks this input's value as read as of now, for nodes that sample
// lazily (read a value only when some other input ticks, rather than
// reacting to every tick of this one).
func (i *Input[V]) Sample(now enginetime.Time) V {
	i.sampledTime = now
	return i.Value()
}

// SampledTime returns the last time this input was explicitly sampled.
func (i *Input[V]) SampledTime() enginetime.Time {
	return i.sampledTime
}
