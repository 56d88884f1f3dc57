package audit

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// bootstrapQuantileCI resamples row indices [0, n) with replacement
// `resamples` times, applies `metric` to each resample, and returns the
// requested percentile interval of the resulting distribution via gonum's
// empirical quantile.
func bootstrapQuantileCI(n, resamples int, seed int64, lowerP, upperP float64, metric func(idx []int) float64) (lower, upper float64) {
	if n == 0 {
		return 0, 0
	}

	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, resamples)
	idx := make([]int, n)

	for r := 0; r < resamples; r++ {
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		values[r] = metric(idx)
	}

	sortFloats(values)
	lower = stat.Quantile(lowerP, stat.Empirical, values, nil)
	upper = stat.Quantile(upperP, stat.Empirical, values, nil)
	return lower, upper
}

func sortFloats(values []float64) {
	for i := 1; i < len(values); i++ {
		v := values[i]
		j := i - 1
		for j >= 0 && values[j] > v {
			values[j+1] = values[j]
			j--
		}
		values[j+1] = v
	}
}
