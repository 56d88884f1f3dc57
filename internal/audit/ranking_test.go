package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNDCGAtK_PerfectOrderingIsOne(t *testing.T) {
	relevance := []float64{25, 20, 15, 10}
	assert.InDelta(t, 1.0, NDCGAtK(relevance, 4), 1e-9)
}

func TestNDCGAtK_WorstOrderingIsBelowOne(t *testing.T) {
	relevance := []float64{10, 15, 20, 25}
	assert.Less(t, NDCGAtK(relevance, 4), 1.0)
}

func TestNDCGAtK_KLargerThanListClampsToLength(t *testing.T) {
	relevance := []float64{10, 20}
	assert.InDelta(t, NDCGAtK(relevance, 2), NDCGAtK(relevance, 100), 1e-9)
}

func TestNDCGAtK_EmptyListIsZero(t *testing.T) {
	assert.Equal(t, 0.0, NDCGAtK(nil, 5))
}

func TestSpearmanRankCorrelation_PerfectAgreementIsOne(t *testing.T) {
	predicted := []float64{1, 2, 3, 4, 5}
	actual := []float64{10, 20, 30, 40, 50}
	assert.InDelta(t, 1.0, SpearmanRankCorrelation(predicted, actual), 1e-9)
}

func TestSpearmanRankCorrelation_PerfectDisagreementIsMinusOne(t *testing.T) {
	predicted := []float64{1, 2, 3, 4, 5}
	actual := []float64{50, 40, 30, 20, 10}
	assert.InDelta(t, -1.0, SpearmanRankCorrelation(predicted, actual), 1e-9)
}

func TestSpearmanRankCorrelation_HandlesTies(t *testing.T) {
	predicted := []float64{1, 1, 2, 3}
	actual := []float64{10, 10, 20, 30}
	assert.InDelta(t, 1.0, SpearmanRankCorrelation(predicted, actual), 1e-9)
}

func TestBootstrapMetricCI_ConstantMetricCollapsesToAPoint(t *testing.T) {
	lower, upper := BootstrapMetricCI(20, 200, 3, func(idx []int) float64 { return 0.9 })
	assert.InDelta(t, 0.9, lower, 1e-9)
	assert.InDelta(t, 0.9, upper, 1e-9)
}
