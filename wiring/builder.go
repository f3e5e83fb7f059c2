// Package wiring is the builder-time API collaborators use to assemble a
// Graph before handing it to the engine (spec.md §6): declare nodes and
// edges, catch cycles and unresolved bindings while the graph is still
// just data, and only then instantiate it into something the engine can
// run.
package wiring

import (
	"fmt"

	"github.com/tsflow/engine/engine"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/structures"
)

// Resolvable is satisfied by feedback.DelayedBinding[V] for any V — used
// by CheckResolved without the wiring package needing to import feedback
// generically over every port type it might see.
type Resolvable interface {
	CheckResolved() error
}

// Builder is BuildGraph's concrete form: a Graph under construction plus
// the dependency DAG used purely to catch wiring-time cycles (spec.md
// §7's WiringError, "cycle detected at build"). Adapted directly from
// structures.DAG's cycle-rejecting Link, which already rolls back on
// detection — exactly the semantics a wiring-time cycle check needs.
type Builder struct {
	g   *graph.Graph
	dag structures.DAG[int, struct{}]
}

// NewBuilder returns an empty builder over clk (the graph's own clock,
// or a nested one for a sub-graph builder).
func NewBuilder(clk graph.Clock) *Builder {
	return &Builder{g: graph.New(clk), dag: structures.NewDAG[int, struct{}]()}
}

// BuildNode declares a node, returning the graph.Node so callers can read
// back its assigned index for AddEdge calls. build receives the node's
// index to close over when wiring its Input triggers, exactly as
// graph.Graph.AddNode does directly — Builder exists to layer cycle
// bookkeeping on top, not to replace that call.
func (b *Builder) BuildNode(build func(index int) graph.Node) graph.Node {
	idx := b.g.NextIndex()
	b.dag.AddNode(idx)
	return b.g.AddNode(build)
}

// AddEdge records a data dependency src -> dst (src feeds an input of
// dst). Returns a *engine.EngineError of kind WiringError if the edge
// would close a cycle; the graph is left exactly as it was before the
// call (structures.DAG.Link rolls back internally on rejection).
func (b *Builder) AddEdge(src, dst graph.Node) error {
	if err := b.dag.Link(src.Index(), dst.Index(), struct{}{}); err != nil {
		return engine.NewWiringError(
			engine.NodePath{fmt.Sprintf("node[%d]", src.Index()), fmt.Sprintf("node[%d]", dst.Index())},
			"edge would create a cycle",
			err,
		)
	}
	return nil
}

// Graph returns the graph built so far. Call this once wiring is
// complete; further BuildNode/AddEdge calls after reading it still
// mutate the same underlying graph.Graph, since Builder does no deferred
// instantiation step of its own (spec.md §9 already resolves the
// dynamic-typing/generics concern at Go's compile time, so there is no
// separate "instantiate with scalars" monomorphization phase to run
// here — each node closure is already concrete Go code by the time
// BuildNode is called).
func (b *Builder) Graph() *graph.Graph {
	return b.g
}

// CheckResolved runs CheckResolved on every Resolvable (normally a set of
// feedback.DelayedBinding ports) and returns the first WiringError found,
// satisfying spec.md §4.6's "enforces that the delayed binding resolves
// before engine start".
func CheckResolved(ports ...Resolvable) error {
	for i, p := range ports {
		if err := p.CheckResolved(); err != nil {
			return engine.NewWiringError(
				engine.NodePath{fmt.Sprintf("delayed-binding[%d]", i)},
				"unresolved delayed binding",
				err,
			)
		}
	}
	return nil
}
