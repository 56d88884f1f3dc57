package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/admissions-triage/core/internal/domain"
)

// WriteApplicantSnapshot persists the full unified frame as JSON, losslessly
// round-trippable unlike the diagnostic master CSV, so a later run can skip
// re-ingestion entirely (--skip-ingestion) without losing the free-text
// fields the rubric scorer needs or the derived flags the feature pipeline
// needs.
func WriteApplicantSnapshot(applicants []domain.Applicant, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir for %s: %w", path, err)
	}
	raw, err := json.Marshal(applicants)
	if err != nil {
		return fmt.Errorf("marshaling applicant snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing applicant snapshot %s: %w", path, err)
	}
	return nil
}

// ReadApplicantSnapshot loads a snapshot written by WriteApplicantSnapshot.
func ReadApplicantSnapshot(path string) ([]domain.Applicant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading applicant snapshot %s: %w", path, err)
	}
	var applicants []domain.Applicant
	if err := json.Unmarshal(raw, &applicants); err != nil {
		return nil, fmt.Errorf("parsing applicant snapshot %s: %w", path, err)
	}
	return applicants, nil
}
