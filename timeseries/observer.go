// Package timeseries implements the dual TimeSeriesOutput/TimeSeriesInput
// primitives and the container semantics (TS, TSL, TSS, TSD, TSB, TSW, REF)
// from spec.md §3: the producer/consumer contract, delta semantics, and
// input/output duality shared by every container variant.
//
// Grounded on the teacher's observer/notification pattern
// (commons/processors.go: EventProcessor/EventObserver) generalized from
// "notify on every event" to "notify on output tick, observer decides what
// to do" (graph.Node schedules itself when one of its active inputs ticks).
package timeseries

import (
	"github.com/tsflow/engine/enginetime"
)

// Observer is notified when a ValueSource it is registered against ticks
// (its value changes, or — for REF — its target rebinds). The owning Node
// wraps itself (or rather, one of its inputs) as an Observer so that a
// tick can schedule the node for evaluation this cycle.
type Observer interface {
	NotifyModified(now enginetime.Time)
}

// observerSet holds the observers of one ValueSource, preserving
// registration order (spec.md §5: "notifications from an output to its
// observers preserve observer-registration order") and de-duplicating
// registrations of the same Observer, matching the idempotent-notify
// invariant in spec.md §3.
type observerSet struct {
	observers []Observer
	index     map[Observer]int
}

func (s *observerSet) add(o Observer) {
	if o == nil {
		return
	}
	if s.index == nil {
		s.index = make(map[Observer]int)
	}
	if _, found := s.index[o]; found {
		return
	}
	s.index[o] = len(s.observers)
	s.observers = append(s.observers, o)
}

func (s *observerSet) remove(o Observer) {
	if s.index == nil {
		return
	}
	idx, found := s.index[o]
	if !found {
		return
	}
	delete(s.index, o)
	s.observers = append(s.observers[:idx], s.observers[idx+1:]...)
	for i := idx; i < len(s.observers); i++ {
		s.index[s.observers[i]] = i
	}
}

func (s *observerSet) notify(now enginetime.Time) {
	// copy to allow an observer callback to register/unregister without
	// corrupting the iteration (a node's own eval may rebind inputs).
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	for _, o := range observers {
		o.NotifyModified(now)
	}
}

// base is the bookkeeping shared by every ValueSource implementation: the
// valid/lastModified/observer-set triple from spec.md §3. Containers that
// don't fit the single-equals-function Output[V] shape (TSS/TSD/TSL/TSW,
// which tick on structural mutation rather than whole-value replacement)
// embed base directly instead of duplicating this bookkeeping.
type base struct {
	lastModified enginetime.Time
	valid        bool
	observers    observerSet
}

func newBase() base {
	return base{lastModified: enginetime.MinTime}
}

// LastModifiedTime returns the engine time this source last ticked.
func (b *base) LastModifiedTime() enginetime.Time {
	return b.lastModified
}

// Valid reports whether the source has ever produced a value.
func (b *base) Valid() bool {
	return b.valid
}

func (b *base) addObserver(o Observer)    { b.observers.add(o) }
func (b *base) removeObserver(o Observer) { b.observers.remove(o) }

// Invalidate marks the source as never having produced a value.
func (b *base) Invalidate() {
	b.valid = false
}

// tick marks the source as modified at now and notifies observers.
func (b *base) tick(now enginetime.Time) {
	b.valid = true
	b.lastModified = now
	b.observers.notify(now)
}
