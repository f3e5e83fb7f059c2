package timeseries

import (
	"github.com/tsflow/engine/maths"
)

// Stats returns the mean and standard deviation of a rolling window's
// currently retained samples, built by loading Values() into a
// maths.Serie and delegating to its Indicators. An empty window reports
// zero for both.
func Stats[F maths.FloatNumber](w *TSWOutput[F]) (mean, stddev float64) {
	values := w.Values()
	if len(values) == 0 {
		return 0, 0
	}
	serie := maths.NewEmptySerie[F](0)
	for i, v := range values {
		_ = serie.Set(i, v)
	}
	return serie.Indicators()
}
