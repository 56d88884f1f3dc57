package features

import (
	"sort"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/taxonomy"
)

// canonicalRubricColumns is the fixed, sorted set of canonical dimension
// names used as feature columns. domain.RubricScore.Scores is already
// keyed by these names by the time it reaches this package — legacy
// raw-keyed caches are migrated to canonical names in
// rubric.LoadCache, not here.
func canonicalRubricColumns() []string {
	cols := append([]string{}, domain.AllRubricDimensions()...)
	sort.Strings(cols)
	return cols
}

// rubricRow extracts one applicant's canonical-dimension values from a
// RubricScore, rescaling v2->v1 when targetScaleMax is 5 (§4.4 step 3).
// A nil entry (missing dimension or zero-text null) is left as NaN-free 0
// here; zero-as-missing median imputation happens in the caller using the
// fitted medians, since only the caller knows which values were nil.
func rubricRow(score *domain.RubricScore, targetScaleMax int) (values map[string]float64, missing map[string]bool, err error) {
	values = make(map[string]float64, len(domain.AllRubricDimensions()))
	missing = make(map[string]bool, len(domain.AllRubricDimensions()))

	for _, dim := range domain.AllRubricDimensions() {
		raw, present := score.Scores[dim]
		if !present || raw == nil {
			missing[dim] = true
			values[dim] = 0
			continue
		}

		v := float64(*raw)
		if score.FormatVersion == domain.RubricV2 && targetScaleMax == domain.RubricV1.ScaleMax() {
			v = taxonomy.RescaleV2ToV1(*raw)
		}
		values[dim] = v
	}

	return values, missing, nil
}
