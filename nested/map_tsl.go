package nested

import (
	"github.com/tsflow/engine/clock"
	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/timeseries"
)

// TSLBodyBuilder builds the body graph for a fixed TSL slot index.
// slotInput's own observer is the map infrastructure's internal relay
// node, not a node the builder creates; a body node reacting to this
// slot's value binds its own Input against slotInput.Bound() with its
// own trigger (see BodyBuilder's doc comment in map_tsd.go for the same
// pattern spelled out in full).
type TSLBodyBuilder[In any, Out any] func(bodyGraph *graph.Graph, index int, slotInput *timeseries.Input[In]) *timeseries.Output[Out]

// MapTSL implements MAP over TSL (spec.md §4.5.2): the fixed-size twin of
// MapTSD — N body instances, one per index, built once and never
// torn down (no add/remove dynamics for a fixed-length list).
type MapTSL[In any, Out any] struct {
	tsl    *timeseries.TSLOutput[In]
	output *timeseries.TSLOutput[Out]
	bodies []*mapBody[In, Out]
}

// NewMapTSL registers a map node in g over every slot of tsl.
func NewMapTSL[In any, Out any](g *graph.Graph, root *clock.Clock, tsl *timeseries.TSLOutput[In], build TSLBodyBuilder[In, Out], outEquals func(a, b Out) bool) *MapTSL[In, Out] {
	m := &MapTSL[In, Out]{
		tsl:    tsl,
		output: timeseries.NewTSLOutput[Out](tsl.Size(), outEquals),
		bodies: make([]*mapBody[In, Out], tsl.Size()),
	}

	g.AddNode(func(index int) graph.Node {
		trigger := g.NewTrigger(index)
		inputs := make([]*timeseries.Input[In], tsl.Size())
		for i := 0; i < tsl.Size(); i++ {
			in := timeseries.NewInput[In](trigger)
			child, _ := tsl.At(i)
			in.Bind(child)
			inputs[i] = in
		}

		startFn := func() error {
			for i := range inputs {
				if err := m.buildSlot(i, root, build); err != nil {
					return err
				}
			}
			return nil
		}

		evalFn := func(now enginetime.Time) error {
			for i, in := range inputs {
				b := m.bodies[i]
				if in.Modified(now) {
					b.inSide.Set(in.Value(), now)
				}
				if b.clk.NextScheduledEvaluationTime() > now {
					continue
				}
				b.clk.ResetNextScheduled()
				if err := b.g.Evaluate(now); err != nil {
					return err
				}
				if b.out.LastModifiedTime() == now {
					_ = m.output.SetAt(i, b.out.Value(), now)
				}
			}
			return nil
		}

		stopFn := func() error {
			for _, b := range m.bodies {
				if b != nil {
					_ = b.g.Stop()
				}
			}
			return nil
		}

		return graph.NewFuncNode(index, "map-tsl", evalFn, startFn, stopFn)
	})

	return m
}

// Output returns the collected per-slot results.
func (m *MapTSL[In, Out]) Output() *timeseries.TSLOutput[Out] {
	return m.output
}

func (m *MapTSL[In, Out]) buildSlot(i int, root *clock.Clock, build TSLBodyBuilder[In, Out]) error {
	nestedClock := clock.NewNested(root)
	bodyGraph := graph.New(nestedClock)

	var zero In
	relay := timeseries.NewOutput[In](nil)

	b := &mapBody[In, Out]{clk: nestedClock, g: bodyGraph, inSide: relay}

	var slotInput *timeseries.Input[In]
	bodyGraph.AddNode(func(index int) graph.Node {
		slotInput = timeseries.NewInput[In](bodyGraph.NewTrigger(index))
		slotInput.Bind(relay)
		return graph.NewFuncNode(index, "map-slot-relay", func(enginetime.Time) error { return nil }, nil, nil)
	})
	b.in = slotInput

	b.out = build(bodyGraph, i, slotInput)
	m.bodies[i] = b

	if err := bodyGraph.Start(); err != nil {
		return err
	}
	// Deferred until every body node bound its own Input against relay
	// (inside build, above) and the graph has started, so the initial
	// zero value reaches them as a scheduled notification rather than a
	// silent tick nothing was listening for yet.
	relay.Set(zero, enginetime.MinTime)
	return nil
}
