// Package features implements C4: the leakage-safe feature pipeline that
// turns the unified applicant frame plus the rubric cache into the fixed
// feature matrix consumed by the two-stage model.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/taxonomy"
)

// Pipeline implements domain.FeaturePipeline.
type Pipeline struct {
	fitted bool

	columns []string

	mcatMedian     float64
	rubricMedians  map[string]float64 // canonical dimension -> fitted median
	rubricScaleMax int                // scale the pipeline was fit on (4 or 5)

	trainingMarginals map[string]Marginal

	cachedFitTransform []domain.FeatureVector
	contentHash        string
}

// Marginal records a feature's training-set mean and standard deviation,
// used downstream by the drift audit (C6) to flag out-of-distribution
// applicants at scoring time.
type Marginal struct {
	Mean   float64
	StdDev float64
}

// NewPipeline constructs an unfitted Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{rubricMedians: make(map[string]float64)}
}

// Columns returns the fitted, ordered feature-column names.
func (p *Pipeline) Columns() []string {
	return p.columns
}

// TrainingMarginals returns the fitted per-feature training mean/stddev,
// handed to the two-stage model artifact and the audit drift report so
// both round-trip the same distribution the pipeline was fit against.
func (p *Pipeline) TrainingMarginals() map[string]Marginal {
	return p.trainingMarginals
}

// Fit computes every statistic the pipeline will need at transform time —
// MCAT median, per-dimension rubric medians, the rubric scale the pipeline
// targets, the feature-column ordering, and training marginals — from the
// given training subset only (§4.4 "Leakage invariant").
func (p *Pipeline) Fit(applicants []domain.Applicant, rubrics []domain.RubricScore) error {
	p.rubricScaleMax = dominantScaleMax(rubrics)
	p.columns = buildColumnOrder()

	p.mcatMedian = medianMCAT(applicants)

	rubricByID := indexRubrics(rubrics)
	p.rubricMedians = fitRubricMedians(applicants, rubricByID, p.rubricScaleMax)

	matrix, err := p.transform(applicants, rubricByID)
	if err != nil {
		return err
	}
	p.trainingMarginals = computeMarginals(p.columns, matrix)
	p.cachedFitTransform = matrix
	p.fitted = true
	p.contentHash = computeContentHash(p)

	return nil
}

// FitTransform fits and returns the fitted matrix without a second
// transform pass over the same data (§4.4 "Leakage invariant").
func (p *Pipeline) FitTransform(applicants []domain.Applicant, rubrics []domain.RubricScore) ([]domain.FeatureVector, error) {
	if err := p.Fit(applicants, rubrics); err != nil {
		return nil, err
	}
	return p.cachedFitTransform, nil
}

// Transform applies the frozen fitted statistics to a new applicant set.
func (p *Pipeline) Transform(applicants []domain.Applicant, rubrics []domain.RubricScore) ([]domain.FeatureVector, error) {
	if !p.fitted {
		return nil, fmt.Errorf("feature pipeline not fitted")
	}
	return p.transform(applicants, indexRubrics(rubrics))
}

func (p *Pipeline) transform(applicants []domain.Applicant, rubricByID map[int64]*domain.RubricScore) ([]domain.FeatureVector, error) {
	result := make([]domain.FeatureVector, 0, len(applicants))

	for _, a := range applicants {
		row := make(map[string]float64, len(p.columns))

		for _, col := range taxonomy.NumericFeatureColumns {
			v, err := numericValue(a, col)
			if err != nil {
				return nil, err
			}
			row[col] = v
		}
		for _, col := range taxonomy.BinaryFeatureColumns {
			v, err := binaryValue(a, col)
			if err != nil {
				return nil, err
			}
			row[col] = v
		}
		for _, col := range taxonomy.AcademicFeatureColumns {
			v, ok, err := academicValue(a, col)
			if err != nil {
				return nil, err
			}
			if !ok {
				v = p.mcatMedian
			}
			row[col] = v
		}

		engineered := engineeredFeatures(a)
		for i, col := range taxonomy.EngineeredFeatureColumns {
			row[col] = engineered[i]
		}

		score := rubricByID[a.AMCASID]
		if score != nil {
			values, missing, err := rubricRow(score, p.rubricScaleMax)
			if err != nil {
				return nil, err
			}
			for canonical, v := range values {
				if missing[canonical] {
					v = p.rubricMedians[canonical]
				}
				row[canonical] = v
			}
		} else {
			for _, canonical := range canonicalRubricColumns() {
				row[canonical] = p.rubricMedians[canonical]
			}
		}

		// Protected-attribute guard: unconditionally strip any column in
		// the protected set, even if upstream configuration drifted and
		// tried to slip one into row (§4.4 step 5).
		for _, protected := range taxonomy.ProtectedColumns {
			delete(row, protected)
		}

		values := make([]float64, len(p.columns))
		for i, col := range p.columns {
			v, ok := row[col]
			if !ok {
				return nil, fmt.Errorf("expected feature column %q absent from row for amcas_id %d", col, a.AMCASID)
			}
			if math.IsNaN(v) {
				v = 0 // terminal NaN sweep, §4.4 step 6
			}
			values[i] = v
		}

		result = append(result, domain.FeatureVector{AMCASID: a.AMCASID, Values: values})
	}

	return result, nil
}

// buildColumnOrder constructs the fitted feature_columns_ ordering:
// numeric, binary, academic, engineered, then canonical rubric dimensions
// sorted alphabetically for determinism (§3: "~48 names").
func buildColumnOrder() []string {
	var cols []string
	cols = append(cols, taxonomy.NumericFeatureColumns...)
	cols = append(cols, taxonomy.BinaryFeatureColumns...)
	cols = append(cols, taxonomy.AcademicFeatureColumns...)
	cols = append(cols, taxonomy.EngineeredFeatureColumns...)
	cols = append(cols, canonicalRubricColumns()...)
	return cols
}

func indexRubrics(rubrics []domain.RubricScore) map[int64]*domain.RubricScore {
	idx := make(map[int64]*domain.RubricScore, len(rubrics))
	for i := range rubrics {
		idx[rubrics[i].AMCASID] = &rubrics[i]
	}
	return idx
}

// dominantScaleMax picks the scale the pipeline targets for rubric
// features: v1 (scale 5) if any v1 scores are present in the fit set,
// otherwise v2 (scale 4). This is decided once, at fit time, and frozen.
func dominantScaleMax(rubrics []domain.RubricScore) int {
	for _, r := range rubrics {
		if r.FormatVersion == domain.RubricV1 {
			return domain.RubricV1.ScaleMax()
		}
	}
	return domain.RubricV2.ScaleMax()
}

func medianMCAT(applicants []domain.Applicant) float64 {
	var values []float64
	for _, a := range applicants {
		if a.MCATTotal != nil {
			values = append(values, float64(*a.MCATTotal))
		}
	}
	return median(values)
}

func fitRubricMedians(applicants []domain.Applicant, rubricByID map[int64]*domain.RubricScore, scaleMax int) map[string]float64 {
	valuesByDim := make(map[string][]float64)

	for _, a := range applicants {
		score := rubricByID[a.AMCASID]
		if score == nil {
			continue
		}
		values, missing, err := rubricRow(score, scaleMax)
		if err != nil {
			continue
		}
		for dim, v := range values {
			if missing[dim] {
				continue
			}
			valuesByDim[dim] = append(valuesByDim[dim], v)
		}
	}

	medians := make(map[string]float64, len(valuesByDim))
	for dim, values := range valuesByDim {
		medians[dim] = median(values)
	}
	return medians
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func computeMarginals(columns []string, matrix []domain.FeatureVector) map[string]Marginal {
	marginals := make(map[string]Marginal, len(columns))
	n := float64(len(matrix))
	if n == 0 {
		return marginals
	}

	for i, col := range columns {
		var sum float64
		for _, row := range matrix {
			sum += row.Values[i]
		}
		mean := sum / n

		var sumSq float64
		for _, row := range matrix {
			d := row.Values[i] - mean
			sumSq += d * d
		}
		stdDev := 0.0
		if n > 1 {
			stdDev = math.Sqrt(sumSq / (n - 1))
		}
		marginals[col] = Marginal{Mean: mean, StdDev: stdDev}
	}
	return marginals
}

var _ domain.FeaturePipeline = (*Pipeline)(nil)
