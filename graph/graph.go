package graph

import (
	"fmt"

	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/scheduler"
	"github.com/tsflow/engine/timeseries"
)

// Clock is the slice of clock.Clock / clock.Nested a Graph needs: enough
// to learn the current evaluation time and to push a future wake request
// upward (a sub-graph's Clock is a *clock.Nested forwarding to its parent,
// so scheduling inside a nested graph transparently wakes the outer one).
type Clock interface {
	EvaluationTime() enginetime.Time
	RequestSchedule(t enginetime.Time)
}

// Graph is an ordered node list plus a scheduler (spec.md §4.4). A
// sub-graph owned by a nested node (map/reduce/switch body) is just a
// Graph built over a *clock.Nested instead of the root *clock.Clock.
type Graph struct {
	nodes []Node
	sched *scheduler.Scheduler
	clk   Clock
}

// New returns an empty graph driven by clk.
func New(clk Clock) *Graph {
	return &Graph{sched: scheduler.New(), clk: clk}
}

// NextIndex returns the index the next AddNode call will assign, so
// wiring code can pre-compute a node's index before building the
// closures (triggers, self-schedule calls) that capture it.
func (g *Graph) NextIndex() int {
	return len(g.nodes)
}

// AddNode builds a node via build(index), where index is this node's
// assigned position, and registers it. Nodes must be added in
// topological-rank order — the wiring package is responsible for that,
// the Graph simply trusts the order it's given (spec.md §4.2: node index
// is "the topological rank assigned at wiring").
func (g *Graph) AddNode(build func(index int) Node) Node {
	idx := len(g.nodes)
	node := build(idx)
	g.nodes = append(g.nodes, node)
	return node
}

// NewTrigger returns a timeseries.Observer that, when notified, schedules
// the node at index to run in the current cycle. Bind this as the
// observer for every active Input belonging to that node.
func (g *Graph) NewTrigger(index int) timeseries.Observer {
	return &trigger{g: g, index: index}
}

type trigger struct {
	g     *Graph
	index int
}

func (t *trigger) NotifyModified(now enginetime.Time) {
	_ = t.g.Schedule(t.index, now)
}

// Schedule requests that node index be evaluated at time at, both in this
// graph's own scheduler and — via the Clock — in whatever owns the next
// wake-time upward (the root engine, or a parent nested node).
func (g *Graph) Schedule(index int, at enginetime.Time) error {
	if err := g.sched.Schedule(index, at); err != nil {
		return err
	}
	g.clk.RequestSchedule(at)
	return nil
}

// ScheduleLabeled is Schedule's named-slot variant (spec.md §4.2):
// re-scheduling the same label replaces its prior entry rather than
// racing it for "earliest wins".
func (g *Graph) ScheduleLabeled(index int, at enginetime.Time, label string) error {
	if err := g.sched.ScheduleLabeled(index, at, label); err != nil {
		return err
	}
	g.clk.RequestSchedule(at)
	return nil
}

// Unschedule removes a named slot for index, reporting whether one existed.
func (g *Graph) Unschedule(index int, label string) bool {
	return g.sched.Unschedule(index, label)
}

// NextScheduledTime returns this graph's own earliest pending entry,
// enginetime.MaxTime if nothing is scheduled.
func (g *Graph) NextScheduledTime() enginetime.Time {
	return g.sched.NextTime()
}

// Len returns the number of nodes registered in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NodeAt returns the node at index i.
func (g *Graph) NodeAt(i int) Node {
	return g.nodes[i]
}

// Start calls Start on every node in registration order. If any node
// fails to start, Start stops all previously-started nodes in reverse
// order before returning the error (spec.md §5's resource-scoping
// guarantee).
func (g *Graph) Start() error {
	for i, n := range g.nodes {
		if err := n.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.nodes[j].Stop()
			}
			return fmt.Errorf("graph: node %d failed to start: %w", i, err)
		}
	}
	return nil
}

// Stop calls Stop on every node in reverse-registration order.
func (g *Graph) Stop() error {
	var firstErr error
	for i := len(g.nodes) - 1; i >= 0; i-- {
		if err := g.nodes[i].Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("graph: node %d failed to stop: %w", i, err)
		}
	}
	return firstErr
}

// Evaluate pops all nodes due at now and evaluates them in ascending
// index order, repeating until the scheduler holds nothing more at now —
// the within-cycle fixed point (spec.md §4.4). A node's Eval may
// self-schedule further work at now (e.g. a nested node draining more
// than one due key), which is exactly what keeps this loop going.
func (g *Graph) Evaluate(now enginetime.Time) error {
	for {
		due := g.sched.PopDue(now)
		if len(due) == 0 {
			return nil
		}
		for _, idx := range due {
			if idx < 0 || idx >= len(g.nodes) {
				continue
			}
			if err := g.nodes[idx].Eval(now); err != nil {
				return fmt.Errorf("graph: node %d eval failed at %s: %w", idx, now, err)
			}
		}
	}
}
