package timeseries

// TS is the scalar time-series container (spec.md §3). It adds nothing to
// the bare Output/Input pair except the scalar delta-equals-value
// identity, so it is implemented directly on top of them rather than as a
// separate concrete type.

// NewScalarOutput returns a TS output comparing successive values with ==,
// the common case for comparable scalar payloads.
func NewScalarOutput[T comparable]() *Output[T] {
	return NewOutput[T](func(a, b T) bool { return a == b })
}

// NewScalarOutputAlways returns a TS output that ticks on every Set call,
// regardless of whether the value actually changed — used for payloads
// that are not meaningfully comparable (e.g. a value embedding a function).
func NewScalarOutputAlways[T any]() *Output[T] {
	return NewOutput[T](nil)
}

// DeltaValue returns the portion of a scalar input's value that changed
// this cycle. For TS, delta_value == value on every tick (spec.md §3).
func DeltaValue[T any](i *Input[T]) T {
	return i.Value()
}

// Lag returns the sample stepsBack positions before the most recent one in
// w (stepsBack 0 is the most recent sample), and false if w does not hold
// that many samples. It is implemented directly against a window so `out = ts + lag(ts, 2)`
// (spec.md §8 scenario 2) can be built from the TSW primitive rather than
// a bespoke operator.
func Lag[T any](w *TSWOutput[T], stepsBack int) (T, bool) {
	values := w.Values()
	idx := len(values) - 1 - stepsBack
	if idx < 0 || idx >= len(values) {
		var zero T
		return zero, false
	}
	return values[idx], true
}
