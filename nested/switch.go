package nested

import (
	"fmt"

	"github.com/tsflow/engine/clock"
	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/timeseries"
)

// BodyFactory builds a switch arm's body graph and returns its output.
type BodyFactory[Out any] func(bodyGraph *graph.Graph) *timeseries.Output[Out]

// Switch implements the selector-driven SWITCH operator (spec.md §4.5.5):
// on every change of selector it tears down the previous arm and
// instantiates the new one, exposing a REF so downstream observers see a
// rebind rather than having to re-subscribe.
type Switch[K comparable, Out any] struct {
	selector       *timeseries.Input[K]
	factories      map[K]BodyFactory[Out]
	reloadOnTicked bool
	root           *clock.Clock
	ref            *timeseries.Ref[Out]

	current     *switchBody[Out]
	currentKey  K
	hasCurrent  bool
}

type switchBody[Out any] struct {
	clk *clock.Nested
	g   *graph.Graph
	out *timeseries.Output[Out]
}

// NewSwitch registers a switch node in g. selectorSource drives which
// factory is instantiated; reloadOnTicked forces a rebuild even when the
// selector's value repeats, for bodies that capture state via free
// bindings rather than pure function of the selector value.
func NewSwitch[K comparable, Out any](g *graph.Graph, root *clock.Clock, selectorSource timeseries.ValueSource[K], factories map[K]BodyFactory[Out], reloadOnTicked bool) *Switch[K, Out] {
	s := &Switch[K, Out]{
		factories:      factories,
		reloadOnTicked: reloadOnTicked,
		root:           root,
		ref:            timeseries.NewRef[Out](),
	}

	g.AddNode(func(index int) graph.Node {
		trigger := g.NewTrigger(index)
		s.selector = timeseries.NewInput[K](trigger)
		s.selector.Bind(selectorSource)

		evalFn := func(now enginetime.Time) error {
			return s.eval(now)
		}
		return graph.NewFuncNode(index, "switch", evalFn, nil, s.stop)
	})

	return s
}

// Output returns the REF that always points at the currently active arm.
func (s *Switch[K, Out]) Output() *timeseries.Ref[Out] {
	return s.ref
}

func (s *Switch[K, Out]) eval(now enginetime.Time) error {
	selectorTicked := s.selector.Modified(now)
	if !selectorTicked && s.hasCurrent {
		return s.evalCurrent(now)
	}

	key := s.selector.Value()
	changed := !s.hasCurrent || key != s.currentKey || (s.reloadOnTicked && selectorTicked)
	if changed {
		if err := s.rebuild(key, now); err != nil {
			return err
		}
	}
	return s.evalCurrent(now)
}

func (s *Switch[K, Out]) rebuild(key K, now enginetime.Time) error {
	factory, ok := s.factories[key]
	if !ok {
		return fmt.Errorf("switch: no body registered for selector value %v", key)
	}

	if s.current != nil {
		_ = s.current.g.Stop()
	}

	nestedClock := clock.NewNested(s.root)
	bodyGraph := graph.New(nestedClock)
	out := factory(bodyGraph)

	if err := bodyGraph.Start(); err != nil {
		return err
	}
	if err := bodyGraph.Evaluate(now); err != nil {
		return err
	}

	s.current = &switchBody[Out]{clk: nestedClock, g: bodyGraph, out: out}
	s.currentKey = key
	s.hasCurrent = true
	s.ref.Rebind(out, now)
	return nil
}

func (s *Switch[K, Out]) evalCurrent(now enginetime.Time) error {
	if s.current == nil {
		return nil
	}
	if s.current.clk.NextScheduledEvaluationTime() > now {
		return nil
	}
	s.current.clk.ResetNextScheduled()
	return s.current.g.Evaluate(now)
}

func (s *Switch[K, Out]) stop() error {
	if s.current != nil {
		return s.current.g.Stop()
	}
	return nil
}
