package nested_test

import (
	"testing"

	"github.com/tsflow/engine/clock"
	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/nested"
	"github.com/tsflow/engine/timeseries"
)

func TestMapTSLFixedSlotsTrackEachChild(t *testing.T) {
	root := clock.New(clock.Simulation, 0)
	g := graph.New(root)
	tsl := timeseries.NewTSLOutput[int](3, func(a, b int) bool { return a == b })

	increment := func(bodyGraph *graph.Graph, index int, slotInput *timeseries.Input[int]) *timeseries.Output[int] {
		out := timeseries.NewOutput[int](func(a, b int) bool { return a == b })
		bodyGraph.AddNode(func(idx int) graph.Node {
			own := timeseries.NewInput[int](bodyGraph.NewTrigger(idx))
			own.Bind(slotInput.Bound())
			evalFn := func(now enginetime.Time) error {
				out.Set(own.Value()+1, now)
				return nil
			}
			return graph.NewFuncNode(idx, "increment", evalFn, nil, nil)
		})
		return out
	}

	m := nested.NewMapTSL[int, int](g, root, tsl, increment, func(a, b int) bool { return a == b })

	if err := g.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Stop()

	now := enginetime.Time(1)
	_ = tsl.SetAt(0, 10, now)
	_ = tsl.SetAt(2, 30, now)
	if err := g.Evaluate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := m.Output().Value()
	want := []int{11, 1, 31}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	now = 2
	_ = tsl.SetAt(1, 5, now)
	if err := g.Evaluate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Output().Value()[1]; got != 6 {
		t.Fatalf("got %d, want 6 after updating slot 1", got)
	}
}
