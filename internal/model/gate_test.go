package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepGateThreshold_PassedMeansLowProbabilityOfLow(t *testing.T) {
	// Applicant 0 is a true low scorer with a high p_low; applicant 1 is a
	// true pass with a low p_low. At threshold 0.5 the gate should reject
	// applicant 0 (predicted_low) and pass applicant 1 (predicted_pass).
	idx := []int{0, 1}
	y := []float64{1, 0}
	predictP := func(i int) float64 {
		if i == 0 {
			return 0.9
		}
		return 0.1
	}

	threshold, err := sweepGateThreshold(idx, y, predictP, 0.5)
	require.NoError(t, err)

	predictedLow0 := predictP(0) > threshold
	predictedLow1 := predictP(1) > threshold
	assert.True(t, predictedLow0, "true low scorer with p_low=0.9 must be predicted_low")
	assert.False(t, predictedLow1, "true pass with p_low=0.1 must be predicted_pass")
}

func TestSweepGateThreshold_NoFeasibleThresholdFallsBackToMax(t *testing.T) {
	idx := []int{0, 1}
	y := []float64{1, 1}
	predictP := func(i int) float64 { return 0.0 } // recall always 0, never >= target

	threshold, err := sweepGateThreshold(idx, y, predictP, 0.99)
	require.NoError(t, err)
	assert.Equal(t, threshold, thresholdSweepMaxForTest())
}

func TestCheckModeCollapse_AllPredictedLowFails(t *testing.T) {
	g := &safetyGate{threshold: 0.5}
	idx := []int{0, 1, 2}
	y := []float64{1, 0, 1} // not a constant label split

	predictP := func(i int) float64 { return 0.9 } // every applicant predicted_low

	err := g.checkModeCollapse(idx, y, predictP)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errModeCollapse))
}

func TestCheckModeCollapse_AllPredictedPassFails(t *testing.T) {
	g := &safetyGate{threshold: 0.5}
	idx := []int{0, 1, 2}
	y := []float64{1, 0, 1}

	predictP := func(i int) float64 { return 0.1 } // every applicant predicted_pass

	err := g.checkModeCollapse(idx, y, predictP)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errModeCollapse))
}

func TestCheckModeCollapse_MixedPredictionsPass(t *testing.T) {
	g := &safetyGate{threshold: 0.5}
	idx := []int{0, 1, 2, 3}
	y := []float64{1, 0, 1, 0}

	predictP := func(i int) float64 {
		if i < 2 {
			return 0.9
		}
		return 0.1
	}

	assert.NoError(t, g.checkModeCollapse(idx, y, predictP))
}

func TestCheckModeCollapse_ConstantLabelIsNotTheGatesFault(t *testing.T) {
	g := &safetyGate{threshold: 0.5}
	idx := []int{0, 1}
	y := []float64{1, 1}
	predictP := func(i int) float64 { return 0.9 }

	assert.NoError(t, g.checkModeCollapse(idx, y, predictP))
}

func TestIsConstantLabel(t *testing.T) {
	assert.True(t, isConstantLabel([]float64{1, 1, 1}, []int{0, 1, 2}))
	assert.False(t, isConstantLabel([]float64{1, 0, 1}, []int{0, 1, 2}))
	assert.True(t, isConstantLabel(nil, nil))
}

func thresholdSweepMaxForTest() float64 {
	return 0.50
}
