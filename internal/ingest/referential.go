package ingest

import (
	"fmt"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/taxonomy"
)

// referentialAudit computes orphans = auxiliary_ids - applicant_ids for
// one auxiliary file and the coverage ratio |aux ∩ applicant| / |applicant|
// (§4.2 stage 2). Any orphan is fatal; below-threshold coverage is a
// warning.
func referentialAudit(fileName string, applicantIDs map[string]bool, auxIDs map[string]bool) (*domain.PipelineError, *domain.PipelineError) {
	orphanCount := 0
	for id := range auxIDs {
		if !applicantIDs[id] {
			orphanCount++
		}
	}

	if orphanCount > 0 {
		return domain.NewIntegrityError(
			fmt.Sprintf("%d orphaned amcas_id(s) in %s not present in the applicant table", orphanCount, fileName),
			fileName, orphanCount,
		), nil
	}

	if len(applicantIDs) == 0 {
		return nil, nil
	}

	covered := 0
	for id := range auxIDs {
		if applicantIDs[id] {
			covered++
		}
	}
	ratio := float64(covered) / float64(len(applicantIDs))

	threshold, ok := taxonomy.CoverageThreshold[fileName]
	if !ok || ratio >= threshold {
		return nil, nil
	}

	return nil, domain.NewQualityWarning(
		fmt.Sprintf("coverage ratio %.4f for %s below threshold %.4f", ratio, fileName, threshold),
		fileName, "", len(applicantIDs)-covered,
		"verify the file was exported for the same cycle as the applicant table",
	)
}

// rowCountCheck emits a warning when a file's row count falls outside the
// configured plausible band (§4.2 failure modes).
func rowCountCheck(fileName string, rowCount int) *domain.PipelineError {
	band, ok := taxonomy.RowCountPlausibleBand[fileName]
	if !ok {
		return nil
	}
	if rowCount < band.Min || rowCount > band.Max {
		return domain.NewQualityWarning(
			fmt.Sprintf("row count %d outside expected band [%d, %d] for %s", rowCount, band.Min, band.Max, fileName),
			fileName, "", rowCount,
			"confirm the source export was not truncated or duplicated",
		)
	}
	return nil
}
