package timeseries

import (
	"errors"
	"fmt"

	"github.com/tsflow/engine/enginetime"
)

// TSDOutput is the dynamic dict-of-time-series container (spec.md §3):
// keys are a scalar K, each value is itself an Output[V]. The TSD owns a
// child TSS[K] key-set output; adding or removing a key fires the key-set
// observers (map/reduce/switch watch this to grow/shrink their body
// graphs) strictly before the corresponding per-key value observers, so a
// nested node always learns about topology changes before value changes.
type TSDOutput[K comparable, V any] struct {
	base
	children  map[K]*Output[V]
	keySet    *TSSOutput[K]
	equals    func(a, b V) bool
	removedAt map[K]enginetime.Time
	// order tracks keys in insertion order, independent of the children
	// map's iteration order. The non-associative reduce operator needs a
	// stable, deterministic key order (spec.md §4.5.4: "follows the TSD's
	// internal order (which is insertion order here)").
	order []K
	// addedOrModified / removed accumulate this cycle's delta, reset lazily
	// like TSSOutput's.
	addedOrModified map[K]bool
	removed         []K
	deltaTime       enginetime.Time
}

// NewTSDOutput returns an empty TSD output. equals is used for per-key
// change detection and may be nil (always-changed semantics).
func NewTSDOutput[K comparable, V any](equals func(a, b V) bool) *TSDOutput[K, V] {
	return &TSDOutput[K, V]{
		base:      newBase(),
		children:  make(map[K]*Output[V]),
		keySet:    NewTSSOutput[K](),
		equals:    equals,
		removedAt: make(map[K]enginetime.Time),
		deltaTime: enginetime.MinTime,
	}
}

// KeySet returns the TSD's owned child key-set output. Map/reduce nested
// nodes drive their per-key body-graph lifecycle off this.
func (o *TSDOutput[K, V]) KeySet() *TSSOutput[K] {
	return o.keySet
}

func (o *TSDOutput[K, V]) resetDeltaIfStale(now enginetime.Time) {
	if o.deltaTime != now {
		o.addedOrModified = make(map[K]bool)
		o.removed = nil
		o.deltaTime = now
	}
}

// SetValue upserts k => value at time now, creating the per-key Output the
// first time k is seen. Returns errKeyReaddedSameCycle if k was removed
// earlier in this same cycle (spec.md §3/§8: a key cannot be re-added in
// the cycle it was removed in).
func (o *TSDOutput[K, V]) SetValue(k K, value V, now enginetime.Time) error {
	if removedAt, found := o.removedAt[k]; found && removedAt == now {
		return fmt.Errorf("%w: key %v", errKeyReaddedSameCycle, k)
	}

	o.resetDeltaIfStale(now)

	child, existed := o.children[k]
	if !existed {
		child = NewOutput[V](o.equals)
		o.children[k] = child
		o.order = append(o.order, k)
		o.keySet.Add(k, now) // key-set observers notified before value observers
	}

	child.Set(value, now)
	o.addedOrModified[k] = true
	o.tick(now)
	return nil
}

// Remove deletes k at time now. Errors if k is absent (spec.md §3: REMOVE
// errors if absent).
func (o *TSDOutput[K, V]) Remove(k K, now enginetime.Time) error {
	child, found := o.children[k]
	if !found {
		return fmt.Errorf("%w: key %v", errKeyNotFound, k)
	}

	o.resetDeltaIfStale(now)
	child.Invalidate()
	delete(o.children, k)
	delete(o.addedOrModified, k)
	for i, existing := range o.order {
		if existing == k {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	o.removedAt[k] = now
	o.removed = append(o.removed, k)
	o.keySet.RemoveIfExists(k, now)
	o.lastModified = now
	o.valid = true
	o.observers.notify(now)
	return nil
}

// RemoveIfExists deletes k if present, a silent no-op otherwise (spec.md
// §3: REMOVE_IF_EXISTS is accepted silently for absent keys).
func (o *TSDOutput[K, V]) RemoveIfExists(k K, now enginetime.Time) {
	if _, found := o.children[k]; found {
		_ = o.Remove(k, now)
	}
}

// Access returns the per-key output for binding a downstream Input[V], or
// an error. Accessing a key removed earlier in the same cycle returns
// errKeyRemovedThisCycle rather than the generic not-found error, per
// spec.md §8's boundary behavior.
func (o *TSDOutput[K, V]) Access(k K, now enginetime.Time) (*Output[V], error) {
	if child, found := o.children[k]; found {
		return child, nil
	}
	if removedAt, found := o.removedAt[k]; found && removedAt == now {
		return nil, fmt.Errorf("%w: key %v", errKeyRemovedThisCycle, k)
	}
	return nil, fmt.Errorf("%w: key %v", errKeyNotFound, k)
}

// Has reports whether k currently has a value bound.
func (o *TSDOutput[K, V]) Has(k K) bool {
	_, found := o.children[k]
	return found
}

// Keys returns the currently-bound keys in insertion order.
func (o *TSDOutput[K, V]) Keys() []K {
	return append([]K(nil), o.order...)
}

// Value returns the full current dict contents as a plain map snapshot.
func (o *TSDOutput[K, V]) Value() map[K]V {
	result := make(map[K]V, len(o.children))
	for k, child := range o.children {
		result[k] = child.Value()
	}
	return result
}

// AddedOrModifiedKeys returns the keys that were added or had their value
// change this cycle.
func (o *TSDOutput[K, V]) AddedOrModifiedKeys(now enginetime.Time) []K {
	if o.deltaTime != now {
		return nil
	}
	result := make([]K, 0, len(o.addedOrModified))
	for k := range o.addedOrModified {
		result = append(result, k)
	}
	return result
}

// RemovedKeys returns the keys removed this cycle.
func (o *TSDOutput[K, V]) RemovedKeys(now enginetime.Time) []K {
	if o.deltaTime != now {
		return nil
	}
	return append([]K(nil), o.removed...)
}

// errIsReaddedSameCycle reports whether err is the specific "re-added this
// cycle" failure, letting callers special-case it from other SetValue
// errors.
func errIsReaddedSameCycle(err error) bool {
	return errors.Is(err, errKeyReaddedSameCycle)
}
