package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/taxonomy"
)

func TestSelectAboveThreshold_FiltersOnTrueScore(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	scores := []float64{10, 15, 20, 25}

	x, y := selectAboveThreshold(X, scores, 15)
	require.Len(t, y, 2)
	assert.Equal(t, []float64{20, 25}, y)
	assert.Equal(t, [][]float64{{3}, {4}}, x)
}

func TestRankerContamination_FractionAtOrBelowThreshold(t *testing.T) {
	y := []float64{10, 15, 20, 25}
	c := rankerContamination(y, 15)
	assert.InDelta(t, 0.5, c, 1e-9)
}

func TestRankerContamination_EmptyPoolIsZero(t *testing.T) {
	assert.Equal(t, 0.0, rankerContamination(nil, 15))
}

func TestFitQualityRanker_InsufficientRowsErrorsWithSpecWording(t *testing.T) {
	X := make([][]float64, 10)
	scores := make([]float64, 10)
	for i := range X {
		X[i] = []float64{float64(i)}
		scores[i] = 5 // every row at or below threshold -> none selected
	}

	_, err := fitQualityRanker(rankerConfig{estimators: 5, depth: 1, learningRate: 0.1}, X, scores, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient positive class after gating threshold")
}

func TestFitQualityRanker_SelectsAlphaMinimizingContamination(t *testing.T) {
	n := taxonomy.MinRankerTrainingRows + 50
	X := make([][]float64, n)
	scores := make([]float64, n)
	for i := range X {
		X[i] = []float64{float64(i % 7)}
		scores[i] = float64(11 + i%15) // all strictly above threshold=10
	}

	ranker, err := fitQualityRanker(rankerConfig{estimators: 10, depth: 2, learningRate: 0.2}, X, scores, 10)
	require.NoError(t, err)
	assert.Contains(t, taxonomy.QuantileAlphaSweep, ranker.alpha)
}
