// Package engine implements the outer evaluation loop (spec.md §4.4,
// §6): advancing the clock, draining push sources, evaluating the graph
// to its within-cycle fixed point, and repeating until nothing more is
// scheduled or the caller's end_time is reached.
package engine

import (
	"github.com/tsflow/engine/clock"
	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
)

// Mode selects SIMULATION or REAL_TIME evaluation (spec.md §6).
type Mode int

const (
	ModeSimulation Mode = iota
	ModeRealTime
)

// RuntimeContext is passed explicitly through the engine API rather than
// read from process-wide globals (spec.md §9: "the core must not depend
// on process-wide state"). Collaborators (adaptors, recordable-state
// facilities) stash whatever they need here.
type RuntimeContext struct {
	values map[string]any
}

// NewRuntimeContext returns an empty context.
func NewRuntimeContext() *RuntimeContext {
	return &RuntimeContext{values: make(map[string]any)}
}

// Set stores a collaborator-defined value under key.
func (c *RuntimeContext) Set(key string, value any) {
	c.values[key] = value
}

// Get retrieves a value previously stored under key.
func (c *RuntimeContext) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// EngineResult is returned by Evaluate: either the loop ran to
// completion/exhaustion, or stop_engine was called cooperatively (spec.md
// §9: "Replace with an explicit EngineResult::StopRequested return").
type EngineResult struct {
	StopRequested bool
	Reason        string
	EndTime       enginetime.Time
}

// Engine is the root EvaluationEngine: one Graph, one root Clock, one
// RuntimeContext, zero or more push sources.
type Engine struct {
	g           *graph.Graph
	clk         *clock.Clock
	mode        Mode
	ctx         *RuntimeContext
	pushSources []pushDrainer

	stopRequested bool
	stopReason    string
}

// NewClock returns the root clock a graph must be built with
// (graph.New(clk)) before passing both to New — the graph's nodes are
// wired against this exact clock instance, so scheduling from inside the
// graph reaches the same clock the engine drives.
func NewClock(mode Mode, startTime enginetime.Time) *clock.Clock {
	if mode == ModeRealTime {
		return clock.New(clock.RealTime, startTime)
	}
	return clock.New(clock.Simulation, startTime)
}

// New returns an engine over g, a graph already built with clk (via
// NewClock + graph.New). Passing a clk that g was not built with leaves
// the engine watching a clock the graph never schedules against.
func New(g *graph.Graph, clk *clock.Clock, ctx *RuntimeContext) *Engine {
	mode := ModeSimulation
	if clk.Mode() == clock.RealTime {
		mode = ModeRealTime
	}
	if ctx == nil {
		ctx = NewRuntimeContext()
	}
	return &Engine{
		g:    g,
		clk:  clk,
		mode: mode,
		ctx:  ctx,
	}
}

// Context returns the engine's RuntimeContext.
func (e *Engine) Context() *RuntimeContext {
	return e.ctx
}

// Clock returns the engine's root clock, for nested-node wiring that
// needs to build clock.Nested children from it.
func (e *Engine) Clock() *clock.Clock {
	return e.clk
}

// StopEngine requests cooperative termination: the loop checks this at
// the top of every cycle and returns EngineResult.StopRequested instead
// of unwinding via exception, per spec.md §9.
func (e *Engine) StopEngine(reason string) {
	e.stopRequested = true
	e.stopReason = reason
	e.clk.Stop()
}

// Evaluate runs the graph from startTime (the clock's construction time)
// through endTime inclusive, or forever if endTime is enginetime.MaxTime.
// It starts every node, evaluates cycles until exhausted/stopped/past
// endTime, then stops every node in reverse order regardless of outcome.
func (e *Engine) Evaluate(endTime enginetime.Time) (EngineResult, error) {
	if err := e.g.Start(); err != nil {
		return EngineResult{}, err
	}
	defer e.g.Stop()

	at := e.clk.EvaluationTime()
	for {
		if e.stopRequested {
			return EngineResult{StopRequested: true, Reason: e.stopReason, EndTime: at}, nil
		}

		for _, p := range e.pushSources {
			p.drain(at)
		}

		if err := e.g.Evaluate(at); err != nil {
			return EngineResult{EndTime: at}, err
		}

		if e.stopRequested {
			return EngineResult{StopRequested: true, Reason: e.stopReason, EndTime: at}, nil
		}

		// Schedule requests made for the cycle just evaluated leave the
		// clock's marker at `at`, and a reset between cycles drops requests
		// for later times; the graph's scheduler still holds those, so the
		// next cycle is the earlier of its next entry and any later clock
		// request.
		next := e.g.NextScheduledTime()
		if c := e.clk.NextScheduledEvaluationTime(); c > at && c < next {
			next = c
		}
		e.clk.ResetNextScheduled()
		if next != enginetime.MaxTime {
			e.clk.RequestSchedule(next)
		}

		if e.mode == ModeSimulation {
			if next == enginetime.MaxTime || (endTime.IsBounded() && next > endTime) {
				return EngineResult{EndTime: at}, nil
			}
			e.clk.ResetNextScheduled()
			at = next
			e.clk.AdvanceTo(at)
			continue
		}

		if !e.clk.WaitForNext() {
			return EngineResult{StopRequested: true, Reason: e.stopReason, EndTime: at}, nil
		}

		next = e.clk.NextScheduledEvaluationTime()
		if next == enginetime.MaxTime {
			at = e.clk.WallClockNow()
		} else {
			if endTime.IsBounded() && next > endTime {
				return EngineResult{EndTime: at}, nil
			}
			at = next
		}
		e.clk.ResetNextScheduled()
		e.clk.AdvanceTo(at)
	}
}
