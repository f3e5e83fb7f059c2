package nested

import (
	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/timeseries"
)

// ReduceNonAssocTSD implements the non-associative reduce over a TSD
// (spec.md §4.5.4): a linear chain `f(...f(f(zero, v0), v1)..., vn-1)`
// following the TSD's insertion order, which is preserved exactly because
// combine is not assumed associative or commutative (unlike ReduceTSD's
// pooled-slot fold). The chain is rebuilt from the TSD's keys on each
// tick, so a removed key drops out wherever it stood and a new key is
// appended.
type ReduceNonAssocTSD[K comparable, T any] struct {
	tsd    *timeseries.TSDOutput[K, T]
	f      func(acc, v T) T
	zero   T
	output *timeseries.Output[T]
}

// NewReduceNonAssocTSD registers a non-associative reduce node in g.
func NewReduceNonAssocTSD[K comparable, T any](g *graph.Graph, tsd *timeseries.TSDOutput[K, T], f func(acc, v T) T, zero T, equals func(a, b T) bool) *ReduceNonAssocTSD[K, T] {
	r := &ReduceNonAssocTSD[K, T]{tsd: tsd, f: f, zero: zero, output: timeseries.NewOutput[T](equals)}

	g.AddNode(func(index int) graph.Node {
		trigger := g.NewTrigger(index)
		input := timeseries.NewInput[map[K]T](trigger)
		input.Bind(tsd)

		evalFn := func(now enginetime.Time) error {
			if !input.Modified(now) {
				return nil
			}
			r.recompute(now)
			return nil
		}

		return graph.NewFuncNode(index, "reduce-tsd-nonassoc", evalFn, nil, nil)
	})

	return r
}

// Output returns the reduction's output time-series.
func (r *ReduceNonAssocTSD[K, T]) Output() *timeseries.Output[T] {
	return r.output
}

func (r *ReduceNonAssocTSD[K, T]) recompute(now enginetime.Time) {
	full := r.tsd.Value()
	acc := r.zero
	for _, k := range r.tsd.Keys() {
		acc = r.f(acc, full[k])
	}
	r.output.Set(acc, now)
}
