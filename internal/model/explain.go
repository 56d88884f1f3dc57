package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/admissions-triage/core/internal/domain"
)

// FeatureAttribution is one feature's contribution to a single applicant's
// gate and ranker predictions, approximating the SHAP-style attribution
// named for the admin explain surface (§6) via single-feature mean
// ablation: each feature is independently reset to its training marginal
// mean and the resulting prediction swing is the attributed contribution.
// This is not exact Shapley-value attribution, which would require
// evaluating every feature coalition per row — no SHAP implementation
// exists anywhere in the retrieval pack — but it isolates each feature's
// marginal effect on both stages, which is what an admin inspecting one
// applicant's gate-reject or low-rank outcome needs.
type FeatureAttribution struct {
	Feature            string  `json:"feature"`
	GateContribution   float64 `json:"gate_contribution"`
	RankerContribution float64 `json:"ranker_contribution"`
}

// Explain returns one FeatureAttribution per feature column for a single
// applicant, ordered by descending combined absolute contribution.
func (m *TwoStageModel) Explain(features domain.FeatureVector) ([]FeatureAttribution, error) {
	if m.gate == nil || m.ranker == nil {
		return nil, errNotTrained
	}
	if len(features.Values) != len(m.featureColumns) {
		return nil, domain.NewSchemaError(
			fmt.Sprintf("feature row for amcas_id %d has %d values, model expects %d",
				features.AMCASID, len(features.Values), len(m.featureColumns)),
			"feature_matrix", "")
	}

	baseGate := m.gate.predict(features.Values)
	baseRanker := m.ranker.predict(features.Values)

	attributions := make([]FeatureAttribution, len(m.featureColumns))
	for i, col := range m.featureColumns {
		perturbed := append([]float64{}, features.Values...)
		if marginal, ok := m.trainingMarginals[col]; ok {
			perturbed[i] = marginal.Mean
		}
		attributions[i] = FeatureAttribution{
			Feature:            col,
			GateContribution:   baseGate - m.gate.predict(perturbed),
			RankerContribution: baseRanker - m.ranker.predict(perturbed),
		}
	}

	sort.Slice(attributions, func(i, j int) bool {
		return math.Abs(attributions[i].GateContribution)+math.Abs(attributions[i].RankerContribution) >
			math.Abs(attributions[j].GateContribution)+math.Abs(attributions[j].RankerContribution)
	})
	return attributions, nil
}
