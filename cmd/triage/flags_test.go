package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admissions-triage/core/internal/domain"
)

func TestParseYears_CommaSeparatedList(t *testing.T) {
	years, err := parseYears(" 2021, 2022 ,2023")
	require.NoError(t, err)
	require.Equal(t, []int{2021, 2022, 2023}, years)
}

func TestParseYears_RejectsEmptyAndGarbage(t *testing.T) {
	_, err := parseYears("")
	require.Error(t, err)

	_, err = parseYears("not-a-year")
	require.Error(t, err)
}

func TestReadIDFile_IgnoresBlankLinesAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, writeFile(path, "1001\n\n# a comment\n1002\n"))

	ids, err := readIDFile(path)
	require.NoError(t, err)
	require.Equal(t, map[int64]bool{1001: true, 1002: true}, ids)
}

func TestReadIDFile_RejectsInvalidID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, writeFile(path, "not-an-id\n"))

	_, err := readIDFile(path)
	require.Error(t, err)
}

func TestFilterByIDs_NilIDsReturnsUnchanged(t *testing.T) {
	applicants := []domain.Applicant{{AMCASID: 1}, {AMCASID: 2}}
	require.Equal(t, applicants, filterByIDs(applicants, nil))
}

func TestFilterByIDs_RestrictsToGivenIDs(t *testing.T) {
	applicants := []domain.Applicant{{AMCASID: 1}, {AMCASID: 2}, {AMCASID: 3}}
	filtered := filterByIDs(applicants, map[int64]bool{2: true})
	require.Equal(t, []domain.Applicant{{AMCASID: 2}}, filtered)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
