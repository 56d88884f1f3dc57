package model

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/domain"
)

func TestTwoStageModel_ExplainBeforeTrainErrors(t *testing.T) {
	m := NewTwoStageModel(smallModelConfig(), []string{"a"}, testLogger())
	_, err := m.Explain(domain.FeatureVector{AMCASID: 1, Values: []float64{1}})
	assert.ErrorIs(t, err, errNotTrained)
}

func TestTwoStageModel_ExplainRejectsWrongColumnWidth(t *testing.T) {
	columns := []string{"score_signal", "half_signal", "noise"}
	features, scores := syntheticTrainingSet(200)

	m := NewTwoStageModel(smallModelConfig(), columns, testLogger())
	require.NoError(t, m.Train(context.Background(), features, scores))

	_, err := m.Explain(domain.FeatureVector{AMCASID: 1, Values: []float64{1, 2}})
	assert.Error(t, err)
}

func TestTwoStageModel_ExplainReturnsOneAttributionPerColumnOrderedByMagnitude(t *testing.T) {
	columns := []string{"score_signal", "half_signal", "noise"}
	features, scores := syntheticTrainingSet(1500)

	m := NewTwoStageModel(smallModelConfig(), columns, testLogger())
	require.NoError(t, m.Train(context.Background(), features, scores))
	m.WithTrainingMarginals(map[string]Marginal{
		"score_signal": {Mean: 12.5, StdDev: 7.5},
		"half_signal":  {Mean: 6.25, StdDev: 3.75},
		"noise":        {Mean: 1, StdDev: 0.8},
	})

	attributions, err := m.Explain(features[0])
	require.NoError(t, err)
	require.Len(t, attributions, len(columns))

	seen := make(map[string]bool)
	for _, a := range attributions {
		seen[a.Feature] = true
	}
	for _, col := range columns {
		assert.True(t, seen[col], "expected an attribution entry for %s", col)
	}

	for i := 1; i < len(attributions); i++ {
		prevMag := math.Abs(attributions[i-1].GateContribution) + math.Abs(attributions[i-1].RankerContribution)
		curMag := math.Abs(attributions[i].GateContribution) + math.Abs(attributions[i].RankerContribution)
		assert.GreaterOrEqual(t, prevMag, curMag, "attributions must be sorted by descending combined magnitude")
	}
}
