package domain

import "math"

// EnergyAverage computes the equivalent continuous level (LAeq) of decibel
// samples. Decibels are logarithmic, so the mean is taken in the linear
// power domain and converted back:
//
//	laeq = 10 * log10( mean( 10^(level/10) ) )
//
// Returns NaN for an empty sample set; callers only build buckets with at
// least one sample.
func EnergyAverage(levels []float64) float64 {
	if len(levels) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, l := range levels {
		sum += math.Pow(10, l/10)
	}
	return 10 * math.Log10(sum/float64(len(levels)))
}
