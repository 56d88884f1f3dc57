package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/domain"
)

func TestPromptSetHash_Deterministic(t *testing.T) {
	h1, err := promptSetHash("claude-test", 0, 1, 4)
	require.NoError(t, err)
	h2, err := promptSetHash("claude-test", 0, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := promptSetHash("claude-test", 0, 2, 4)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "changing the seed should change the hash")
}

func intPtr(v int) *int { return &v }

func TestCheckCanary_FlagsExcessiveDeviation(t *testing.T) {
	baseline := []domain.RubricScore{
		{AMCASID: 1, Scores: map[string]*int{"ps_authenticity": intPtr(3)}},
	}
	fresh := []domain.RubricScore{
		{AMCASID: 1, Scores: map[string]*int{"ps_authenticity": intPtr(1)}},
	}

	result, err := CheckCanary(fresh, baseline, 0.5)
	require.NoError(t, err)
	assert.True(t, result.Exceeded)
	assert.InDelta(t, 2.0, result.MeanAbsoluteDeviation, 0.001)
}

func TestCheckCanary_WithinBound(t *testing.T) {
	baseline := []domain.RubricScore{
		{AMCASID: 1, Scores: map[string]*int{"ps_authenticity": intPtr(3)}},
	}
	fresh := []domain.RubricScore{
		{AMCASID: 1, Scores: map[string]*int{"ps_authenticity": intPtr(3)}},
	}

	result, err := CheckCanary(fresh, baseline, 0.5)
	require.NoError(t, err)
	assert.False(t, result.Exceeded)
}
