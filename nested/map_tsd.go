package nested

import (
	"github.com/tsflow/engine/clock"
	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/timeseries"
)

// BodyBuilder constructs a per-key body graph: it wires bodyGraph's nodes
// using keyInput (the child TSD value for this key) and returns the
// node whose output is the per-key result. Called once per key, on the
// cycle the key is added.
//
// keyInput is already bound to the key's relay source, but its own
// observer is the map infrastructure's internal relay node, not any node
// the builder creates. A body node that wants to react to this key's
// value changing builds its own Input against the same source and its
// own trigger, e.g.:
//
//	own := timeseries.NewInput[In](bodyGraph.NewTrigger(index))
//	own.Bind(keyInput.Bound())
//
// keyInput itself remains useful for one-shot reads (Value()) from a
// node already triggered by something else.
type BodyBuilder[K comparable, In any, Out any] func(bodyGraph *graph.Graph, key K, keyInput *timeseries.Input[In]) *timeseries.Output[Out]

// mapBody holds one key's instantiated sub-graph plus the plumbing tying
// it back to the owning MapTSD.
type mapBody[In any, Out any] struct {
	clk    *clock.Nested
	g      *graph.Graph
	in     *timeseries.Input[In]
	out    *timeseries.Output[Out]
	inSide *timeseries.Output[In] // a private relay output the keyInput is bound to, re-Set each time the TSD child value changes
}

// MapTSD implements MAP over TSD (spec.md §4.5.1): one body-graph instance
// per key of a driving TSD, instantiated when a key is added and torn
// down when it is removed, with the per-key output collected back into an
// owned TSD output.
type MapTSD[K comparable, In any, Out any] struct {
	tsd              *timeseries.TSDOutput[K, In]
	output           *timeseries.TSDOutput[K, Out]
	errOutput        *timeseries.TSDOutput[K, error]
	build            BodyBuilder[K, In, Out]
	root             *clock.Clock
	bodies           map[K]*mapBody[In, Out]
	equals           func(a, b Out) bool
	captureException bool
}

// NewMapTSD registers a map node in g, running build for every key
// present in tsd over its lifetime, collecting results into the returned
// TSD output.
//
// captureException selects spec.md §7's propagation policy for this map
// node: if true, a body's eval error is captured as a value in
// ErrorOutput()[key] instead of unwinding out of the engine, and that
// key's body graph keeps running, retried on its next tick; if false, a
// body's eval error propagates straight out of Eval, per the uncaptured
// NodeEvalError path.
func NewMapTSD[K comparable, In any, Out any](g *graph.Graph, root *clock.Clock, tsd *timeseries.TSDOutput[K, In], build BodyBuilder[K, In, Out], outEquals func(a, b Out) bool, captureException bool) *MapTSD[K, In, Out] {
	m := &MapTSD[K, In, Out]{
		tsd:              tsd,
		output:           timeseries.NewTSDOutput[K, Out](outEquals),
		errOutput:        timeseries.NewTSDOutput[K, error](nil),
		build:            build,
		root:             root,
		bodies:           make(map[K]*mapBody[In, Out]),
		equals:           outEquals,
		captureException: captureException,
	}

	g.AddNode(func(index int) graph.Node {
		trigger := g.NewTrigger(index)
		input := timeseries.NewInput[map[K]In](trigger)
		input.Bind(tsd)

		evalFn := func(now enginetime.Time) error {
			return m.eval(now, input)
		}
		return graph.NewFuncNode(index, "map-tsd", evalFn, nil, m.stopAll)
	})

	return m
}

// Output returns the collected per-key results.
func (m *MapTSD[K, In, Out]) Output() *timeseries.TSDOutput[K, Out] {
	return m.output
}

// ErrorOutput returns the per-key captured-exception output (spec.md §7's
// error_output[key]). Only populated when captureException was set at
// construction; otherwise a body error propagates out of Eval instead and
// this stays empty.
func (m *MapTSD[K, In, Out]) ErrorOutput() *timeseries.TSDOutput[K, error] {
	return m.errOutput
}

func (m *MapTSD[K, In, Out]) eval(now enginetime.Time, input *timeseries.Input[map[K]In]) error {
	structuralChange := input.Modified(now)

	if structuralChange {
		for _, k := range m.tsd.RemovedKeys(now) {
			m.removeKey(k, now)
		}
		full := m.tsd.Value()
		for _, k := range m.tsd.AddedOrModifiedKeys(now) {
			if _, exists := m.bodies[k]; !exists {
				if v, ok := full[k]; ok {
					if err := m.addKey(k, v, now); err != nil {
						return err
					}
				}
			} else if v, ok := full[k]; ok {
				m.bodies[k].inSide.Set(v, now)
			}
		}
	}

	for k, b := range m.bodies {
		if b.clk.NextScheduledEvaluationTime() > now {
			continue
		}
		b.clk.ResetNextScheduled()
		if err := b.g.Evaluate(now); err != nil {
			if !m.captureException {
				return err
			}
			_ = m.errOutput.SetValue(k, err, now)
			continue
		}
		if b.out.LastModifiedTime() == now {
			_ = m.output.SetValue(k, b.out.Value(), now)
		}
	}

	return nil
}

func (m *MapTSD[K, In, Out]) addKey(k K, initial In, now enginetime.Time) error {
	nestedClock := clock.NewNested(m.root)
	bodyGraph := graph.New(nestedClock)

	relay := timeseries.NewOutput[In](nil)

	b := &mapBody[In, Out]{clk: nestedClock, g: bodyGraph, inSide: relay}

	var keyInput *timeseries.Input[In]
	bodyGraph.AddNode(func(index int) graph.Node {
		keyInput = timeseries.NewInput[In](bodyGraph.NewTrigger(index))
		keyInput.Bind(relay)
		return graph.NewFuncNode(index, "map-key-relay", func(enginetime.Time) error { return nil }, nil, nil)
	})
	b.in = keyInput

	out := m.build(bodyGraph, k, keyInput)
	b.out = out

	if err := bodyGraph.Start(); err != nil {
		return err
	}
	// The first tick is deferred until every body node has bound its own
	// Input against relay (inside m.build, above) and the graph has
	// started, so nothing misses the initial value as a scheduled
	// notification.
	relay.Set(initial, now)
	if err := bodyGraph.Evaluate(now); err != nil {
		if !m.captureException {
			return err
		}
		// The body's own graph is already started and registered: per
		// spec.md §7's propagation policy the key's body graph continues,
		// retried on its next tick, rather than being torn down.
		_ = m.errOutput.SetValue(k, err, now)
		m.bodies[k] = b
		return nil
	}
	if out.LastModifiedTime() == now {
		_ = m.output.SetValue(k, out.Value(), now)
	}

	m.bodies[k] = b
	return nil
}

func (m *MapTSD[K, In, Out]) removeKey(k K, now enginetime.Time) {
	b, ok := m.bodies[k]
	if !ok {
		return
	}
	_ = b.g.Stop()
	delete(m.bodies, k)
	m.output.RemoveIfExists(k, now)
}

func (m *MapTSD[K, In, Out]) stopAll() error {
	for _, b := range m.bodies {
		_ = b.g.Stop()
	}
	return nil
}
