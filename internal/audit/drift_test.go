package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func identicalDistribution(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i % 17)
	}
	return values
}

func TestPSI_IdenticalDistributionsIsZero(t *testing.T) {
	a := New()
	values := identicalDistribution(200)
	psi := a.PSI(values, values, 10)
	assert.InDelta(t, 0.0, psi, 1e-9)
}

func TestPSI_ShiftedDistributionIsPositive(t *testing.T) {
	a := New()
	training := identicalDistribution(200)
	scoring := make([]float64, len(training))
	for i, v := range training {
		scoring[i] = v + 50
	}
	psi := a.PSI(training, scoring, 10)
	assert.Greater(t, psi, 0.0)
}

func TestPSI_EmptyInputIsZero(t *testing.T) {
	a := New()
	assert.Equal(t, 0.0, a.PSI(nil, []float64{1}, 10))
}

func TestKolmogorovSmirnovStatistic_IdenticalSamplesIsZero(t *testing.T) {
	values := identicalDistribution(100)
	assert.InDelta(t, 0.0, KolmogorovSmirnovStatistic(values, values), 1e-9)
}

func TestKolmogorovSmirnovStatistic_DisjointSamplesIsOne(t *testing.T) {
	a := []float64{0, 1, 2, 3}
	b := []float64{100, 101, 102, 103}
	assert.InDelta(t, 1.0, KolmogorovSmirnovStatistic(a, b), 1e-9)
}

func TestKolmogorovSmirnovPValue_LargeStatisticIsSmallPValue(t *testing.T) {
	p := KolmogorovSmirnovPValue(1.0, 100, 100)
	assert.Less(t, p, 0.01)
}

func TestKolmogorovSmirnovPValue_ZeroStatisticIsLargePValue(t *testing.T) {
	p := KolmogorovSmirnovPValue(0.0, 100, 100)
	assert.Greater(t, p, 0.9)
}

func TestIsOutOfDomain_FlagsSingleFeatureBeyondThreeSigma(t *testing.T) {
	columns := []string{"gpa", "mcat"}
	marginals := map[string]Marginal{
		"gpa":  {Mean: 3.5, StdDev: 0.3},
		"mcat": {Mean: 510, StdDev: 8},
	}
	assert.True(t, IsOutOfDomain([]float64{3.5, 560}, columns, marginals))
	assert.False(t, IsOutOfDomain([]float64{3.6, 515}, columns, marginals))
}

func TestComputeDriftReport_GlobalAlertFiresAboveFraction(t *testing.T) {
	columns := []string{"a", "b", "c"}
	training := map[string][]float64{
		"a": identicalDistribution(100),
		"b": identicalDistribution(100),
		"c": identicalDistribution(100),
	}
	shifted := make([]float64, 100)
	for i, v := range identicalDistribution(100) {
		shifted[i] = v + 100
	}
	scoring := map[string][]float64{"a": shifted, "b": shifted, "c": identicalDistribution(100)}
	marginals := map[string]Marginal{
		"a": {Mean: 8, StdDev: 5}, "b": {Mean: 8, StdDev: 5}, "c": {Mean: 8, StdDev: 5},
	}

	report := ComputeDriftReport(columns, training, scoring, marginals)
	assert.GreaterOrEqual(t, report.FlaggedCount, 2)
	assert.True(t, report.GlobalAlert)
}
