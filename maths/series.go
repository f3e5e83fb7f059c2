package maths

import (
	"errors"
	"math"
)

// Serie is a generic interface representing a sequence of floating-point
// numbers, trimmed to the surface timeseries.Stats actually drives: load
// samples in by index, then read back the distribution's mean/stddev.
type Serie[F FloatNumber] interface {
	// Set assigns a value at the specified index.
	// If the index is beyond the current size, the series automatically grows.
	Set(index int, value F) error
	// Indicators returns the mean and standard deviation of the series.
	Indicators() (mean, stddev float64)
}

// localSerie is a memory-efficient implementation of the Serie interface.
// Implementation choice: It uses a map to store values that differ from a defaultValue.
// This "sparse" approach is highly efficient for large series containing many repeated values.
type localSerie[F FloatNumber] struct {
	// defaultValue is what we return if no other value was set
	defaultValue F
	// values contains the index based value
	values map[int]F
	// size is the current size of the serie
	size int
	// equality is the way to compare elements in it
	equality func(F, F) bool
}

// Set updates the value at a specific index.
// Complexity: O(1) average for map insertion.
// Implementation choice: Only values different from the defaultValue are stored in the map to save memory.
// If the index is greater than the current size, the size is updated to index + 1.
func (l *localSerie[F]) Set(index int, value F) error {
	if index < 0 {
		return errors.New("invalid index")
	} else if index >= l.size {
		l.size = index + 1
	}

	if !l.equality(value, l.defaultValue) {
		l.values[index] = value
	} else {
		// Clean up the map if the value is changed back to the default
		delete(l.values, index)
	}

	return nil
}

// Indicators calculates and returns the population mean and standard deviation of the series.
//
// It expects that none of the values are NaN. To ensure numerical stability,
// especially with large numbers or small variances, this implementation utilizes
// Welford's online algorithm.
//
// Furthermore, to maintain the memory and CPU efficiency of the sparse series representation,
// the algorithm is optimized to run in O(V) time, where V is the number of explicitly stored
// values in the map. It achieves this by running the standard Welford update on the map values
// first, followed by a single mathematical "batched" update (based on Welford's parallel formula)
// to account for all the remaining implicit default values at once.
func (l *localSerie[F]) Indicators() (mean, stddev float64) {
	if l == nil || l.size == 0 {
		return math.NaN(), math.NaN()
	}

	count := 0
	mean = 0.0
	M2 := 0.0 // Sum of squares of differences from the current mean

	// 1. Standard Welford's algorithm for explicitly defined values in the sparse map.
	for _, value := range l.values {
		count++
		v := float64(value)
		delta := v - mean
		mean += delta / float64(count)
		delta2 := v - mean
		M2 += delta * delta2
	}

	// 2. Batched Welford update for the remaining implicit default values.
	// This avoids looping over potentially millions of default values,
	// preserving the O(V) performance characteristic of the sparse series.
	remaining := l.size - len(l.values)
	if remaining > 0 {
		v := float64(l.defaultValue)
		if count == 0 {
			// Fast path: if the series entirely consists of default values,
			// the mean is exactly the default value and the variance is 0.
			mean = v
			// M2 remains 0.0
		} else {
			// Welford's parallel/merge formula:
			// Safely merging a batch of 'k' identical elements (all equal to 'v')
			// into an already processed distribution of size 'nA'.
			k := float64(remaining)
			nA := float64(count)
			nNew := nA + k

			delta := v - mean

			// Update the overall mean combining the existing set and the new batch
			mean += delta * (k / nNew)

			// Update the sum of squared differences
			M2 += delta * delta * (nA * k / nNew)
		}
	}

	// Calculate the population variance (M2 / N).
	// Note: If sample variance were needed, the divisor would be (N - 1).
	variance := M2 / float64(l.size)

	// Safeguard against floating-point inaccuracies that could rarely produce
	// an infinitesimally small negative variance (e.g., -1e-16).
	if variance < 0 {
		variance = 0
	}

	stddev = math.Sqrt(variance)
	return mean, stddev
}

// newLocalSerie is a private constructor that initializes the internal state.
// Implementation choice: It automatically selects the appropriate epsilon-based
// equality function based on the underlying type (float32 vs float64).
func newLocalSerie[F FloatNumber](size int, defaultValue F) *localSerie[F] {
	if size < 0 {
		return nil
	}

	result := new(localSerie[F])
	result.size = size
	result.defaultValue = defaultValue

	// Determine which comparison precision to use
	if isFloat64(defaultValue) {
		result.equality = equalsFloat64
	} else {
		result.equality = equalsFloat32
	}

	result.values = make(map[int]F)
	return result
}

// NewSerie creates and returns a new Serie interface instance.
func NewSerie[F FloatNumber](size int, defaultValue F) Serie[F] {
	return newLocalSerie(size, defaultValue)
}

// NewEmptySerie returns a new empty serie with the default value to set
func NewEmptySerie[F FloatNumber](defaultValue F) Serie[F] {
	return NewSerie(0, defaultValue)
}
