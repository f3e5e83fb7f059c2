// Package graph implements the Node/Graph evaluation core (spec.md §4.3,
// §4.4): an ordered list of nodes driven by a scheduler, evaluated to a
// within-cycle fixed point at each due time.
package graph

import (
	"github.com/tsflow/engine/commons"
	"github.com/tsflow/engine/enginetime"
)

// EvalFunc is a node's per-cycle computation: read modified inputs, write
// to the node's output if anything changed, optionally self-schedule a
// future wake via the Graph passed at construction time.
type EvalFunc func(now enginetime.Time) error

// Node is the minimal surface the Graph scheduler needs. Concrete node
// behavior (what it reads, what it writes) lives entirely inside EvalFunc
// closures built by the wiring package — there is deliberately no typed
// "inputs"/"output" surface on the interface itself, since inputs and
// outputs are generic over arbitrary payload types and Go interfaces
// cannot express that heterogeneity directly (mirrors commons' functional
// processor pattern: behavior is a closure, not a method set per shape).
type Node interface {
	// Index returns the node's position in its owning Graph's node list,
	// which is also its topological rank for within-cycle ordering.
	Index() int
	// Eval runs the node's computation for the current cycle.
	Eval(now enginetime.Time) error
	// Start acquires any external resources before the first evaluation.
	Start() error
	// Stop releases resources; called in reverse-registration order during
	// teardown, even if Start partially failed elsewhere in the graph.
	Stop() error
}

// FuncNode is the concrete, general-purpose Node: a decorated EvalFunc
// with optional lifecycle hooks, matching the way commons.NewEventProcessor
// turns a plain function into a full EventProcessor.
type FuncNode struct {
	index   int
	id      string
	evalFn  EvalFunc
	startFn func() error
	stopFn  func() error
}

// NewFuncNode returns a node at the given index running evalFn each cycle
// it is dispatched. startFn/stopFn may be nil (treated as no-ops). An
// empty id gets a generated one (commons.NewId, the teacher's uuid-backed
// id generator, reused verbatim here for node identity).
func NewFuncNode(index int, id string, evalFn EvalFunc, startFn, stopFn func() error) *FuncNode {
	if id == "" {
		id = commons.NewId()
	}
	return &FuncNode{index: index, id: id, evalFn: evalFn, startFn: startFn, stopFn: stopFn}
}

// Id returns the node's wiring-assigned identifier.
func (n *FuncNode) Id() string {
	return n.id
}

// Index returns the node's position in its graph.
func (n *FuncNode) Index() int {
	return n.index
}

// Eval runs the node's evaluation function.
func (n *FuncNode) Eval(now enginetime.Time) error {
	if n.evalFn == nil {
		return nil
	}
	return n.evalFn(now)
}

// Start runs the node's start hook, if any.
func (n *FuncNode) Start() error {
	if n.startFn == nil {
		return nil
	}
	return n.startFn()
}

// Stop runs the node's stop hook, if any.
func (n *FuncNode) Stop() error {
	if n.stopFn == nil {
		return nil
	}
	return n.stopFn()
}
