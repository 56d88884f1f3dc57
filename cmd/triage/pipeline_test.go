package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/audit"
	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/features"
	"github.com/admissions-triage/core/internal/model"
)

func score(v int) *int { return &v }

func TestSplitTrainHoldout_IsDeterministicAndReservesEveryFifth(t *testing.T) {
	labeled := make([]domain.Applicant, 0, 10)
	for i := int64(1); i <= 10; i++ {
		labeled = append(labeled, domain.Applicant{AMCASID: i, ApplicationReviewScore: score(10)})
	}

	train, holdout := splitTrainHoldout(labeled)
	require.Len(t, holdout, 2)
	require.Len(t, train, 8)
	require.Equal(t, int64(5), holdout[0].AMCASID)
	require.Equal(t, int64(10), holdout[1].AMCASID)

	train2, holdout2 := splitTrainHoldout(labeled)
	if diff := cmp.Diff(train, train2); diff != "" {
		t.Fatalf("train split not reproducible (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(holdout, holdout2); diff != "" {
		t.Fatalf("holdout split not reproducible (-first +second):\n%s", diff)
	}
}

func TestApplicantsWithLabels_FiltersUnlabeled(t *testing.T) {
	applicants := []domain.Applicant{
		{AMCASID: 1, ApplicationReviewScore: score(5)},
		{AMCASID: 2},
	}
	labeled := applicantsWithLabels(applicants)
	require.Len(t, labeled, 1)
	require.Equal(t, int64(1), labeled[0].AMCASID)
}

func TestToModelMarginals_ConvertsEveryEntry(t *testing.T) {
	src := map[string]features.Marginal{"gpa": {Mean: 3.5, StdDev: 0.2}}
	got := toModelMarginals(src)
	require.Equal(t, model.Marginal{Mean: 3.5, StdDev: 0.2}, got["gpa"])
}

func TestToAuditMarginals_ConvertsEveryEntry(t *testing.T) {
	src := map[string]model.Marginal{"gpa": {Mean: 3.5, StdDev: 0.2}}
	got := toAuditMarginals(src)
	require.Equal(t, audit.Marginal{Mean: 3.5, StdDev: 0.2}, got["gpa"])
}

func TestDriftFlags_FlagsColumnsBeyondThreeSigma(t *testing.T) {
	vector := domain.FeatureVector{AMCASID: 1, Values: []float64{100, 3.5}}
	marginals := map[string]audit.Marginal{
		"mcat": {Mean: 510, StdDev: 8},
		"gpa":  {Mean: 3.5, StdDev: 0.2},
	}
	flags := driftFlags(vector, []string{"mcat", "gpa"}, marginals)
	require.Equal(t, []string{"mcat"}, flags)
}

func TestDriftFlags_NoFlagsWithinRange(t *testing.T) {
	vector := domain.FeatureVector{AMCASID: 1, Values: []float64{3.6}}
	marginals := map[string]audit.Marginal{"gpa": {Mean: 3.5, StdDev: 0.2}}
	require.Empty(t, driftFlags(vector, []string{"gpa"}, marginals))
}

func TestBuildTriageResults_RanksGatePassedAndRejectsOthers(t *testing.T) {
	applicants := []domain.Applicant{{AMCASID: 1}, {AMCASID: 2}, {AMCASID: 3}}
	featureVectors := []domain.FeatureVector{
		{AMCASID: 1, Values: []float64{3.5}},
		{AMCASID: 2, Values: []float64{3.5}},
		{AMCASID: 3, Values: []float64{3.5}},
	}
	batch := &domain.TriageBatch{
		SelectedIndices:   []int{2, 0},
		PredictedScores:   []float64{20, 15},
		PLow:              []float64{0.1, 0.2, 0.9},
		NPassedGate:       2,
		GateRejectionRate: 1.0 / 3.0,
	}
	marginals := map[string]audit.Marginal{"gpa": {Mean: 3.5, StdDev: 0.2}}

	results := buildTriageResults(applicants, featureVectors, batch, []string{"gpa"}, marginals)
	require.Len(t, results, 3)

	require.True(t, results[0].GatePassed)
	require.Equal(t, 2, *results[0].Rank)
	require.Equal(t, domain.StateRanked, results[0].State)

	require.False(t, results[1].GatePassed)
	require.Nil(t, results[1].Rank)
	require.Equal(t, domain.StateRejectedByGate, results[1].State)
	require.Equal(t, domain.TierNotCompetitive, results[1].Tier)

	require.True(t, results[2].GatePassed)
	require.Equal(t, 1, *results[2].Rank)
	require.Equal(t, domain.TierTopCandidate, results[2].Tier)
}

func TestTierDistribution_CountsEachTier(t *testing.T) {
	dist := tierDistribution([]float64{0, 6.25, 12.5, 18.75})
	require.Equal(t, audit.TierDistribution{
		NotCompetitive: 1,
		Review:         1,
		Recommended:    1,
		TopCandidate:   1,
	}, dist)
}
