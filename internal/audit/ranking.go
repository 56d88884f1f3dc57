package audit

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// NDCGAtK is the normalized discounted cumulative gain of a ranked list,
// using the observed true score as the gain (§4.6: "NDCG@K ... using the
// observed score as the gain"). relevance is already ordered by the
// ranker's predicted score, most-confident first.
func NDCGAtK(relevance []float64, k int) float64 {
	if k > len(relevance) {
		k = len(relevance)
	}
	if k <= 0 {
		return 0
	}

	dcg := dcgAtK(relevance, k)

	ideal := append([]float64{}, relevance...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	idcg := dcgAtK(ideal, k)

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func dcgAtK(relevance []float64, k int) float64 {
	var sum float64
	for i := 0; i < k; i++ {
		sum += relevance[i] / math.Log2(float64(i+2)) // i=0 -> log2(2)=1
	}
	return sum
}

// SpearmanRankCorrelation is the rank correlation between predicted scores
// and true scores over the passed pool (§4.6: "Spearman rank correlation
// on the passed pool"). Ties receive the average of their tied ranks.
// gonum's stat package has no dedicated Spearman function, so this ranks
// both series by hand and runs gonum's Pearson Correlation over the ranks,
// the standard definition of Spearman's rho.
func SpearmanRankCorrelation(predicted, actual []float64) float64 {
	if len(predicted) != len(actual) || len(predicted) < 2 {
		return 0
	}
	return stat.Correlation(rank(predicted), rank(actual), nil)
}

// rank assigns 1-based ranks to values, averaging ranks across ties.
func rank(values []float64) []float64 {
	type indexed struct {
		value float64
		idx   int
	}
	sorted := make([]indexed, len(values))
	for i, v := range values {
		sorted[i] = indexed{value: v, idx: i}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })

	ranks := make([]float64, len(values))
	i := 0
	for i < len(sorted) {
		j := i
		for j+1 < len(sorted) && sorted[j+1].value == sorted[i].value {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for t := i; t <= j; t++ {
			ranks[sorted[t].idx] = avgRank
		}
		i = j + 1
	}
	return ranks
}

// BootstrapMetricCI resamples rows with replacement n times and returns the
// 95% percentile interval of the given metric function, used for both
// NDCG@K and Spearman (§4.6: "bootstrap 95% CI over 1,000 resamples for
// each"). Mirrors internal/model's bootstrapCI; kept as its own
// implementation since the two packages never import each other.
func BootstrapMetricCI(n, resamples int, seed int64, metric func(idx []int) float64) (lower, upper float64) {
	return bootstrapQuantileCI(n, resamples, seed, 0.025, 0.975, metric)
}
