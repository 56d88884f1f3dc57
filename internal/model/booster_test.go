package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientBooster_FitsSeparableBinaryLabels(t *testing.T) {
	X := [][]float64{{0}, {0}, {10}, {10}}
	y := []float64{0, 0, 1, 1}

	b := newGradientBooster(boosterConfig{estimators: 20, depth: 2, learningRate: 0.3, minLeafSize: 1}, logLoss{})
	require.NoError(t, b.fit(X, y, nil, nil))

	assert.Less(t, b.predict([]float64{0}), 0.5)
	assert.Greater(t, b.predict([]float64{10}), 0.5)
}

func TestGradientBooster_EarlyStoppingHaltsOnPlateau(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{1, 2, 3, 4}

	b := newGradientBooster(boosterConfig{
		estimators:   500,
		depth:        1,
		learningRate: 0.1,
		minLeafSize:  1,
		patience:     2,
	}, pinballLoss{alpha: 0.5})
	require.NoError(t, b.fit(X, y, X, y))

	assert.Less(t, len(b.trees), 500, "patience should halt boosting well before the estimator cap")
}

func TestGradientBooster_EmptyTrainingSetErrors(t *testing.T) {
	b := newGradientBooster(boosterConfig{estimators: 1, depth: 1, minLeafSize: 1}, logLoss{})
	err := b.fit(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestGradientBooster_IsDeterministicAcrossRuns(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{0, 0, 0, 1, 1, 1}

	cfg := boosterConfig{estimators: 10, depth: 2, learningRate: 0.2, minLeafSize: 1}
	a := newGradientBooster(cfg, logLoss{})
	require.NoError(t, a.fit(X, y, nil, nil))
	b := newGradientBooster(cfg, logLoss{})
	require.NoError(t, b.fit(X, y, nil, nil))

	for _, x := range X {
		assert.Equal(t, a.predict(x), b.predict(x), "no row/column subsampling means fit is fully deterministic")
	}
}
