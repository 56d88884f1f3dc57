package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedModel(t *testing.T) *TwoStageModel {
	t.Helper()
	features, scores := syntheticTrainingSet(1500)
	columns := []string{"score_signal", "half_signal", "noise"}
	m := NewTwoStageModel(smallModelConfig(), columns, testLogger())
	require.NoError(t, m.Train(context.Background(), features, scores))
	m.WithTrainingMarginals(map[string]Marginal{"score_signal": {Mean: 12.5, StdDev: 7.5}})
	return m
}

func TestTwoStageModel_SaveLoadRoundTripsPredictions(t *testing.T) {
	m := trainedModel(t)
	features, _ := syntheticTrainingSet(10)

	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, m.Save(path))

	restored := NewTwoStageModel(smallModelConfig(), m.featureColumns, testLogger())
	require.NoError(t, restored.Load(path))

	for _, row := range features {
		assert.InDelta(t, m.gate.predict(row.Values), restored.gate.predict(row.Values), 1e-9)
		assert.InDelta(t, m.ranker.predict(row.Values), restored.ranker.predict(row.Values), 1e-9)
	}
	assert.Equal(t, m.trainingMarginals, restored.trainingMarginals)
	assert.Equal(t, m.gate.threshold, restored.gate.threshold)
}

func TestTwoStageModel_SaveBeforeTrainErrors(t *testing.T) {
	m := NewTwoStageModel(smallModelConfig(), []string{"a"}, testLogger())
	err := m.Save(filepath.Join(t.TempDir(), "model.json"))
	assert.ErrorIs(t, err, errNotTrained)
}

func TestTwoStageModel_LoadDetectsTamperedArtifact(t *testing.T) {
	m := trainedModel(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, m.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw = append(raw, []byte(" ")...) // mutate content, sidecar hash no longer matches
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	restored := NewTwoStageModel(smallModelConfig(), m.featureColumns, testLogger())
	err = restored.Load(path)
	assert.ErrorIs(t, err, errArtifactIntegrity)
}

func TestTwoStageModel_LoadMissingSidecarErrors(t *testing.T) {
	m := trainedModel(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, m.Save(path))
	require.NoError(t, os.Remove(path+".sha256"))

	restored := NewTwoStageModel(smallModelConfig(), m.featureColumns, testLogger())
	assert.Error(t, restored.Load(path))
}

func TestBoosterArtifactRoundTrip(t *testing.T) {
	X := [][]float64{{0}, {1}, {10}, {11}}
	y := []float64{0, 0, 1, 1}
	b := newGradientBooster(boosterConfig{estimators: 5, depth: 2, learningRate: 0.3, minLeafSize: 1}, logLoss{})
	require.NoError(t, b.fit(X, y, nil, nil))

	artifact := boosterToArtifact(b)
	restored := artifactToBooster(artifact, logLoss{})

	for _, x := range X {
		assert.InDelta(t, b.predict(x), restored.predict(x), 1e-9)
	}
}
