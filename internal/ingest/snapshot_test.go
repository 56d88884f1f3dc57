package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/domain"
)

func TestApplicantSnapshot_RoundTripsLosslessly(t *testing.T) {
	age := 24
	mcat := 512
	want := []domain.Applicant{
		{
			AMCASID:           1001,
			AppYear:           2024,
			OverallGPA:        3.72,
			MCATTotal:         &mcat,
			MCATCoverage:      true,
			HasResearch:       true,
			PersonalStatement: "I want to be a doctor because...",
			Gender:            "F",
			Age:               &age,
		},
	}

	path := filepath.Join(t.TempDir(), "applicants.json")
	require.NoError(t, WriteApplicantSnapshot(want, path))

	got, err := ReadApplicantSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadApplicantSnapshot_MissingFileErrors(t *testing.T) {
	_, err := ReadApplicantSnapshot(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
}
