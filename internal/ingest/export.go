package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/admissions-triage/core/internal/domain"
)

var masterCSVColumns = []string{
	"amcas_id", "app_year", "overall_gpa", "bcpm_gpa", "mcat_total",
	"research_hours", "med_volunteer_hours", "non_med_volunteer_hours",
	"med_employment_hours", "shadowing_hours", "community_service_hours",
	"healthcare_hours", "num_languages", "parent_education_ordinal",
	"first_generation", "disadvantaged", "ses_value", "pell_grant",
	"fee_assistance", "gender", "race", "citizenship",
}

// WriteMasterCSV persists the unified frame to a per-cycle CSV for manual
// inspection (§4.2 stage 7). It is a diagnostic artifact, never read back
// by the pipeline itself.
func WriteMasterCSV(applicants []domain.Applicant, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(masterCSVColumns); err != nil {
		return fmt.Errorf("writing header to %s: %w", path, err)
	}

	for _, a := range applicants {
		mcat := ""
		if a.MCATTotal != nil {
			mcat = strconv.Itoa(*a.MCATTotal)
		}
		record := []string{
			strconv.FormatInt(a.AMCASID, 10),
			strconv.Itoa(a.AppYear),
			strconv.FormatFloat(a.OverallGPA, 'f', 3, 64),
			strconv.FormatFloat(a.BCPMGPA, 'f', 3, 64),
			mcat,
			strconv.FormatFloat(a.ResearchHours, 'f', 1, 64),
			strconv.FormatFloat(a.MedVolunteerHours, 'f', 1, 64),
			strconv.FormatFloat(a.NonMedVolunteerHours, 'f', 1, 64),
			strconv.FormatFloat(a.MedEmploymentHours, 'f', 1, 64),
			strconv.FormatFloat(a.ShadowingHours, 'f', 1, 64),
			strconv.FormatFloat(a.CommunityServiceHours, 'f', 1, 64),
			strconv.FormatFloat(a.HealthcareHours, 'f', 1, 64),
			strconv.FormatFloat(a.NumLanguages, 'f', 0, 64),
			strconv.FormatFloat(a.ParentEducationOrdinal, 'f', 0, 64),
			strconv.Itoa(a.FirstGeneration),
			strconv.Itoa(a.Disadvantaged),
			strconv.Itoa(a.SESValue),
			strconv.Itoa(a.PellGrant),
			strconv.Itoa(a.FeeAssistance),
			a.Gender,
			a.Race,
			a.Citizenship,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row for amcas_id %d to %s: %w", a.AMCASID, path, err)
		}
	}

	return w.Error()
}
