// Package feedback implements the two forward-reference mechanisms that
// let a graph express a cycle without the engine itself needing to
// support cyclic wiring (spec.md §4.6): feedback loops and delayed
// bindings resolved at build time.
package feedback

import (
	"fmt"

	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/timeseries"
)

// Feedback is an output readable this cycle and writable for next cycle.
// Write during cycle T stages a value that becomes the output's new value
// at T+enginetime.MinDelta, the smallest representable step forward — it
// never mutates the output at the current evaluation time, which is what
// lets a node read its own feedback output without observing its own
// write.
type Feedback[T any] struct {
	current *timeseries.Output[T]
	index   int
	g       *graph.Graph
	pending T
	hasPend bool
}

// New registers a feedback node in g and returns the handle used to read
// (via Output) and write (via Write) it. init is the value visible before
// any write lands.
func New[T any](g *graph.Graph, init T, equals func(a, b T) bool) *Feedback[T] {
	f := &Feedback[T]{current: timeseries.NewOutput[T](equals), g: g}
	f.current.Set(init, enginetime.MinTime)

	g.AddNode(func(index int) graph.Node {
		f.index = index
		return graph.NewFuncNode(index, "feedback", f.flush, nil, nil)
	})
	return f
}

// Output returns the readable side: bind downstream Inputs to this.
func (f *Feedback[T]) Output() *timeseries.Output[T] {
	return f.current
}

// Write stages value to become visible at now+MinDelta. Calling Write more
// than once in the same cycle keeps only the last value written, matching
// the plain last-write-wins semantics of every other Output.Set call.
func (f *Feedback[T]) Write(value T, now enginetime.Time) error {
	f.pending = value
	f.hasPend = true
	return f.g.Schedule(f.index, now.Add(enginetime.MinDelta))
}

func (f *Feedback[T]) flush(now enginetime.Time) error {
	if f.hasPend {
		f.current.Set(f.pending, now)
		f.hasPend = false
	}
	return nil
}

// DelayedBinding is a placeholder wiring port (spec.md §4.6): a port
// declared before the real upstream source is known, resolved later via
// Bind. It does not itself break runtime cycles — it only defers when a
// binding decision has to be made relative to the rest of the wiring
// pass — so misuse (binding it to something that depends on its own
// consumer) still produces a cycle the wiring layer must reject.
type DelayedBinding[V any] struct {
	resolved timeseries.ValueSource[V]
}

// NewDelayedBinding returns an unresolved port.
func NewDelayedBinding[V any]() *DelayedBinding[V] {
	return &DelayedBinding[V]{}
}

// Bind resolves the port to ts. Calling Bind twice is a wiring error: a
// delayed binding is a one-shot placeholder, not a rebindable REF.
func (d *DelayedBinding[V]) Bind(ts timeseries.ValueSource[V]) error {
	if d.resolved != nil {
		return fmt.Errorf("feedback: delayed binding already resolved")
	}
	d.resolved = ts
	return nil
}

// Resolved returns the bound source, or nil if Bind was never called.
func (d *DelayedBinding[V]) Resolved() timeseries.ValueSource[V] {
	return d.resolved
}

// CheckResolved returns an error if the port was never bound — call this
// for every outstanding DelayedBinding before starting the engine
// (spec.md §4.6: "enforces that the delayed binding resolves before
// engine start").
func (d *DelayedBinding[V]) CheckResolved() error {
	if d.resolved == nil {
		return fmt.Errorf("feedback: delayed binding never resolved before engine start")
	}
	return nil
}
