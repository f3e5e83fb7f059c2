package timeseries

import (
	"github.com/tsflow/engine/enginetime"
)

// windowSample pairs a captured value with the time it was captured, so a
// duration-based window can evict on age rather than count.
type windowSample[T any] struct {
	value T
	at    enginetime.Time
}

// TSWOutput is the rolling-window container (spec.md §3): either the last
// N ticks (count-based) or every tick within the last D of engine time
// (duration-based). Samples are kept oldest-first so Values()[len-1] is
// always the most recent.
type TSWOutput[T any] struct {
	base
	samples []windowSample[T]

	countBased bool
	maxCount   int
	maxAge     enginetime.Duration
}

// NewCountWindow returns a TSW output retaining at most the last count
// samples.
func NewCountWindow[T any](count int) *TSWOutput[T] {
	return &TSWOutput[T]{base: newBase(), countBased: true, maxCount: count}
}

// NewDurationWindow returns a TSW output retaining every sample captured
// within the last age of engine time, relative to the most recent push.
func NewDurationWindow[T any](age enginetime.Duration) *TSWOutput[T] {
	return &TSWOutput[T]{base: newBase(), countBased: false, maxAge: age}
}

// Push appends value at time now and evicts samples that have fallen out
// of the window, ticking the TSW output itself.
func (o *TSWOutput[T]) Push(value T, now enginetime.Time) {
	o.samples = append(o.samples, windowSample[T]{value: value, at: now})
	o.evict(now)
	o.tick(now)
}

func (o *TSWOutput[T]) evict(now enginetime.Time) {
	if o.countBased {
		if excess := len(o.samples) - o.maxCount; excess > 0 {
			o.samples = o.samples[excess:]
		}
		return
	}
	cutoff := now - enginetime.Time(o.maxAge)
	i := 0
	for i < len(o.samples) && o.samples[i].at < cutoff {
		i++
	}
	if i > 0 {
		o.samples = o.samples[i:]
	}
}

// Values returns the retained samples, oldest first, most recent last.
func (o *TSWOutput[T]) Values() []T {
	result := make([]T, len(o.samples))
	for i, s := range o.samples {
		result[i] = s.value
	}
	return result
}

// Full reports whether a count-based window holds exactly its configured
// capacity; duration-based windows are always considered full once they
// hold at least one sample, since "full" has no fixed size for them.
func (o *TSWOutput[T]) Full() bool {
	if o.countBased {
		return len(o.samples) >= o.maxCount
	}
	return len(o.samples) > 0
}

// Len returns the number of samples currently retained.
func (o *TSWOutput[T]) Len() int {
	return len(o.samples)
}
