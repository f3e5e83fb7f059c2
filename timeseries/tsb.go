package timeseries

// TSB is the named-bundle container (spec.md §3): a fixed set of named
// fields, each its own time-series, accessed by name rather than index.
//
// Non-peered bundles need no dedicated type at all: a plain Go struct of
// *Output[T]/*Input[T] fields already gives named, independently-ticking
// sub-series with compile-time field access — that is the idiomatic
// rendering and is how the teacher models any fixed, named grouping (see
// structures' field-by-field composition). Declare one per call site, e.g.:
//
//	type QuoteBundle struct {
//	    Bid *Output[float64]
//	    Ask *Output[float64]
//	}
//
// Peered bundles are different: the whole record ticks atomically as one
// value, and fields are read as a struct projection of that single value
// rather than independent series. TSBOutput below models that case.
type TSBOutput[V any] struct {
	*Output[V]
}

// NewPeeredTSBOutput returns a peered bundle output: the entire record V
// ticks as a unit on every Set, using equals for change detection across
// the whole record (nil for always-changed semantics).
func NewPeeredTSBOutput[V any](equals func(a, b V) bool) *TSBOutput[V] {
	return &TSBOutput[V]{Output: NewOutput[V](equals)}
}
