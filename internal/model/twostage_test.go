package model

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// syntheticTrainingSet builds a feature/score pair where a single feature is
// monotone in the true score, giving both the gate and the ranker a genuine
// signal to learn instead of pure noise.
func syntheticTrainingSet(n int) ([]domain.FeatureVector, []int) {
	features := make([]domain.FeatureVector, n)
	scores := make([]int, n)
	for i := 0; i < n; i++ {
		score := i % 26 // cycles 0..25, uniform over the valid range
		features[i] = domain.FeatureVector{
			AMCASID: int64(i + 1),
			Values:  []float64{float64(score), float64(score) / 2, float64(i % 3)},
		}
		scores[i] = score
	}
	return features, scores
}

func smallModelConfig() domain.ModelConfig {
	return domain.ModelConfig{
		GateEstimators:   10,
		GateDepth:        2,
		GateLearningRate: 0.3,
		RankerEstimators: 10,
		RankerDepth:      2,
		RankerLearningRate: 0.3,
	}
}

func TestTwoStageModel_TrainThenTriageReturnsRankedTopK(t *testing.T) {
	features, scores := syntheticTrainingSet(1500)
	columns := []string{"score_signal", "half_signal", "noise"}

	m := NewTwoStageModel(smallModelConfig(), columns, testLogger())
	require.NoError(t, m.Train(context.Background(), features, scores))

	batch, err := m.Triage(features, 25)
	require.NoError(t, err)

	assert.Len(t, batch.SelectedIndices, 25)
	assert.Len(t, batch.PredictedScores, 25)
	assert.Len(t, batch.PLow, len(features))
	assert.GreaterOrEqual(t, batch.NPassedGate, 0)
	assert.GreaterOrEqual(t, batch.GateRejectionRate, 0.0)
	assert.LessOrEqual(t, batch.GateRejectionRate, 1.0)

	for i := 1; i < len(batch.PredictedScores); i++ {
		assert.GreaterOrEqual(t, batch.PredictedScores[i-1], batch.PredictedScores[i], "triage batch must be rank-ordered descending")
	}
}

func TestTwoStageModel_TriageBeforeTrainErrors(t *testing.T) {
	m := NewTwoStageModel(smallModelConfig(), []string{"a"}, testLogger())
	_, err := m.Triage([]domain.FeatureVector{{AMCASID: 1, Values: []float64{1}}}, 5)
	assert.ErrorIs(t, err, errNotTrained)
}

func TestTwoStageModel_MismatchedRowAndScoreCountsErrors(t *testing.T) {
	m := NewTwoStageModel(smallModelConfig(), []string{"a"}, testLogger())
	err := m.Train(context.Background(), []domain.FeatureVector{{AMCASID: 1, Values: []float64{1}}}, []int{1, 2})
	assert.Error(t, err)
}

func TestTwoStageModel_EmptyTrainingSetErrors(t *testing.T) {
	m := NewTwoStageModel(smallModelConfig(), []string{"a"}, testLogger())
	err := m.Train(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestTwoStageModel_NonFiniteFeatureValueIsFatal(t *testing.T) {
	features, scores := syntheticTrainingSet(10)
	features[0].Values[0] = math.NaN()

	m := NewTwoStageModel(smallModelConfig(), []string{"score_signal", "half_signal", "noise"}, testLogger())
	err := m.Train(context.Background(), features, scores)
	require.Error(t, err)
	var pipelineErr *domain.PipelineError
	assert.ErrorAs(t, err, &pipelineErr)
}

func TestTwoStageModel_ValidateColumnsRejectsWrongWidth(t *testing.T) {
	m := NewTwoStageModel(smallModelConfig(), []string{"a", "b"}, testLogger())
	err := m.validateColumns([]domain.FeatureVector{{AMCASID: 1, Values: []float64{1}}})
	assert.Error(t, err)
}
