package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLoss_PosWeightScalesPositiveResidual(t *testing.T) {
	y := []float64{1, 0}
	f := []float64{0, 0}

	unweighted := logLoss{posWeight: 1}.residual(y, f)
	weighted := logLoss{posWeight: 3}.residual(y, f)

	assert.InDelta(t, unweighted[0]*3, weighted[0], 1e-9)
	assert.InDelta(t, unweighted[1], weighted[1], 1e-9, "negative-class residual is untouched by posWeight")
}

func TestLogLoss_InitIsLogOdds(t *testing.T) {
	y := []float64{1, 1, 0, 0}
	init := logLoss{}.init(y)
	// balanced classes -> log-odds of 0.5 -> 0
	assert.InDelta(t, 0.0, init, 1e-9)
}

func TestPinballLoss_ResidualSignMatchesAlpha(t *testing.T) {
	l := pinballLoss{alpha: 0.25}
	y := []float64{10, 10}
	f := []float64{5, 15}

	r := l.residual(y, f)
	assert.InDelta(t, 0.25, r[0], 1e-9, "y >= f takes the alpha branch")
	assert.InDelta(t, -0.75, r[1], 1e-9, "y < f takes the alpha-1 branch")
}

func TestWeightedQuantile_MedianOfOddLength(t *testing.T) {
	y := []float64{3, 1, 2}
	idx := []int{0, 1, 2}
	assert.InDelta(t, 2.0, weightedQuantile(y, idx, 0.5), 1e-9)
}

func TestWeightedQuantile_EmptyIndexReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, weightedQuantile(nil, nil, 0.5))
}

func TestSigmoidAndClampProb(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-9)
	assert.Less(t, clampProb(0), 1.0)
	assert.Greater(t, clampProb(1), 0.0)
}
