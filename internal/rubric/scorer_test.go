package rubric

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/domain"
)

type fakeLLMClient struct {
	calls   int64
	fail    bool
	version string
}

func (f *fakeLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.fail {
		return "", domain.NewRetryableTransport("simulated failure")
	}
	return `{"score": 3, "evidence": "specific detail about research project", "reasoning_steps": "observed concrete example"}`, nil
}

func (f *fakeLLMClient) ModelVersion() string { return f.version }

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.FatalLevel)
	return l
}

func TestScorer_ScoreBatch_HappyPath(t *testing.T) {
	client := &fakeLLMClient{version: "claude-test"}
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	scorer, err := NewScorer(client, Config{
		ConcurrencyCeiling: 2,
		CachePath:          cachePath,
		Temperature:        0,
		Seed:               1,
		MaxRetries:         2,
	}, newTestLogger())
	require.NoError(t, err)

	applicants := []domain.Applicant{
		{
			AMCASID:           1001,
			PersonalStatement: "a story about becoming a doctor",
			SecondaryEssays:   "an essay about diversity",
			ExperienceDescriptions: map[string]string{
				"Research": "worked in a lab for two years studying cell signaling",
			},
		},
	}

	scores, report, err := scorer.ScoreBatch(context.Background(), applicants, false)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Empty(t, report.Errors)

	score := scores[0]
	assert.True(t, score.IsComplete())
	for _, dim := range domain.AllRubricDimensions() {
		v := score.Scores[dim]
		require.NotNil(t, v, "dimension %s should have a score", dim)
		assert.Equal(t, 3, *v)
	}
}

func TestScorer_ScoreBatch_ResumeSkipsComplete(t *testing.T) {
	client := &fakeLLMClient{version: "claude-test"}
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	scorer, err := NewScorer(client, Config{
		ConcurrencyCeiling: 1,
		CachePath:          cachePath,
		MaxRetries:         1,
	}, newTestLogger())
	require.NoError(t, err)

	applicant := domain.Applicant{
		AMCASID:           2002,
		PersonalStatement: "text",
		SecondaryEssays:   "text",
		ExperienceDescriptions: map[string]string{"Research": "text"},
	}

	_, _, err = scorer.ScoreBatch(context.Background(), []domain.Applicant{applicant}, false)
	require.NoError(t, err)
	firstCalls := atomic.LoadInt64(&client.calls)
	assert.Equal(t, int64(21), firstCalls)

	scorer2, err := NewScorer(client, Config{
		ConcurrencyCeiling: 1,
		CachePath:          cachePath,
		MaxRetries:         1,
	}, newTestLogger())
	require.NoError(t, err)

	_, _, err = scorer2.ScoreBatch(context.Background(), []domain.Applicant{applicant}, true)
	require.NoError(t, err)
	assert.Equal(t, firstCalls, atomic.LoadInt64(&client.calls), "resume should not re-call the LLM for a complete applicant")
}

func TestScorer_ScoreBatch_EmptyTextYieldsNullScore(t *testing.T) {
	client := &fakeLLMClient{version: "claude-test"}
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	scorer, err := NewScorer(client, Config{ConcurrencyCeiling: 1, CachePath: cachePath, MaxRetries: 1}, newTestLogger())
	require.NoError(t, err)

	applicant := domain.Applicant{AMCASID: 3003}
	scores, _, err := scorer.ScoreBatch(context.Background(), []domain.Applicant{applicant}, false)
	require.NoError(t, err)

	for _, dim := range domain.AllRubricDimensions() {
		assert.Nil(t, scores[0].Scores[dim], fmt.Sprintf("dimension %s should be null for empty text", dim))
	}
}
