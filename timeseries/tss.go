package timeseries

import (
	"github.com/tsflow/engine/enginetime"
)

// SetDelta describes what changed in a TSS this cycle (spec.md §3): the
// keys added and the keys removed. Removed uses a plain key list rather
// than a sentinel value — Go's static typing makes a literal "Removed"
// marker value (as the source language uses) awkward; a parallel slice is
// the idiomatic equivalent and is what downstream code tests against.
type SetDelta[K comparable] struct {
	Added   []K
	Removed []K
}

// IsEmpty reports whether the delta carries no changes.
func (d SetDelta[K]) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// TSSOutput is the producer side of a set-valued time series.
type TSSOutput[K comparable] struct {
	base
	value map[K]struct{}
	// delta accumulates Added/Removed since the last tick; it is reset to
	// empty as soon as a new engine cycle starts writing to this output
	// (tracked via deltaTime).
	delta     SetDelta[K]
	deltaTime enginetime.Time
}

// NewTSSOutput returns an empty TSS output.
func NewTSSOutput[K comparable]() *TSSOutput[K] {
	return &TSSOutput[K]{base: newBase(), value: make(map[K]struct{}), deltaTime: enginetime.MinTime}
}

func (o *TSSOutput[K]) resetDeltaIfStale(now enginetime.Time) {
	if o.deltaTime != now {
		o.delta = SetDelta[K]{}
		o.deltaTime = now
	}
}

// Add inserts k into the set at time now. Re-adding an already-present key
// is a no-op (no tick).
func (o *TSSOutput[K]) Add(k K, now enginetime.Time) {
	if _, found := o.value[k]; found {
		return
	}
	o.resetDeltaIfStale(now)
	o.value[k] = struct{}{}
	o.delta.Added = append(o.delta.Added, k)
	o.tick(now)
}

// Remove deletes k from the set at time now. It is an error to remove a
// key that is not present (spec.md §3's TSD.Remove semantics, mirrored
// here for the set case for symmetry).
func (o *TSSOutput[K]) Remove(k K, now enginetime.Time) error {
	if _, found := o.value[k]; !found {
		return errKeyNotFound
	}
	o.resetDeltaIfStale(now)
	delete(o.value, k)
	o.delta.Removed = append(o.delta.Removed, k)
	o.tick(now)
	return nil
}

// RemoveIfExists deletes k if present, silently doing nothing otherwise.
func (o *TSSOutput[K]) RemoveIfExists(k K, now enginetime.Time) {
	if _, found := o.value[k]; found {
		_ = o.Remove(k, now)
	}
}

// Contains reports whether k is currently in the set.
func (o *TSSOutput[K]) Contains(k K) bool {
	_, found := o.value[k]
	return found
}

// Value returns the full current set as a snapshot map.
func (o *TSSOutput[K]) Value() map[K]struct{} {
	result := make(map[K]struct{}, len(o.value))
	for k := range o.value {
		result[k] = struct{}{}
	}
	return result
}

// Keys returns the current set members as a slice, in no particular order.
func (o *TSSOutput[K]) Keys() []K {
	result := make([]K, 0, len(o.value))
	for k := range o.value {
		result = append(result, k)
	}
	return result
}

// Len returns the number of elements currently in the set.
func (o *TSSOutput[K]) Len() int {
	return len(o.value)
}

// DeltaValue returns what changed this cycle, or an empty SetDelta if
// nothing did (delta bookkeeping is keyed by now, so reading it at a time
// other than the last tick yields nothing).
func (o *TSSOutput[K]) DeltaValue(now enginetime.Time) SetDelta[K] {
	if o.deltaTime != now {
		return SetDelta[K]{}
	}
	return o.delta
}
