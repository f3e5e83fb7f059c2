package timeseries

import (
	"fmt"

	"github.com/tsflow/engine/enginetime"
)

// TSLOutput is the fixed-length list container (spec.md §3): N independent
// child time-series, indexed 0..N-1, with no add/remove dynamics (that's
// what TSD is for). Size is fixed at construction rather than carried as a
// compile-time type parameter — Go generics don't let a numeric constant
// participate in monomorphization the way the source's N does, and no
// repo anywhere in the retrieval pack reaches for an array-of-constant-size
// generic trick, so this is the plain idiomatic rendering.
type TSLOutput[T any] struct {
	base
	children []*Output[T]
	modified map[int]bool
}

// NewTSLOutput returns a TSL output with size children, each independently
// comparing values via equals (nil for always-changed semantics).
func NewTSLOutput[T any](size int, equals func(a, b T) bool) *TSLOutput[T] {
	children := make([]*Output[T], size)
	for i := range children {
		children[i] = NewOutput[T](equals)
	}
	return &TSLOutput[T]{base: newBase(), children: children}
}

// Size returns the fixed number of child time-series.
func (o *TSLOutput[T]) Size() int {
	return len(o.children)
}

// At returns the child output at index i.
func (o *TSLOutput[T]) At(i int) (*Output[T], error) {
	if i < 0 || i >= len(o.children) {
		return nil, fmt.Errorf("tsl: index %d out of range [0,%d)", i, len(o.children))
	}
	return o.children[i], nil
}

// SetAt writes value to index i at time now, ticking the TSL container
// itself iff the child genuinely changed (modified iff any child modified,
// per spec.md §3).
func (o *TSLOutput[T]) SetAt(i int, value T, now enginetime.Time) error {
	child, err := o.At(i)
	if err != nil {
		return err
	}
	before := child.LastModifiedTime()
	child.Set(value, now)
	if child.LastModifiedTime() != before {
		if o.modified == nil || o.lastModified != now {
			o.modified = make(map[int]bool)
		}
		o.modified[i] = true
		o.tick(now)
	}
	return nil
}

// Value returns the full list of current child values.
func (o *TSLOutput[T]) Value() []T {
	result := make([]T, len(o.children))
	for i, c := range o.children {
		result[i] = c.Value()
	}
	return result
}

// DeltaValue returns the sparse index -> value map of children that
// modified this cycle (spec.md §3: "delta_value is a sparse index->delta
// mapping").
func (o *TSLOutput[T]) DeltaValue(now enginetime.Time) map[int]T {
	if o.lastModified != now {
		return nil
	}
	result := make(map[int]T, len(o.modified))
	for i := range o.modified {
		result[i] = o.children[i].Value()
	}
	return result
}
