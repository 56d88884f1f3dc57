package model

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// bootstrapCI resamples statistic over n rows with replacement
// taxonomy.BootstrapResamples times and returns its 95% percentile
// interval, used for the gate threshold's confidence interval (§4.5:
// "Record the bootstrap 95% CI of the chosen threshold").
func bootstrapCI(n int, resamples int, seed int64, statistic func(idx []int) float64) (lower, upper float64) {
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
		values[r] = statistic(idx)
	}

	sort.Float64s(values)
	lower = stat.Quantile(0.025, stat.Empirical, values, nil)
	upper = stat.Quantile(0.975, stat.Empirical, values, nil)
	return lower, upper
}
