package taxonomy

import "github.com/admissions-triage/core/internal/domain"

// RubricDimensionV2ToCanonical maps the v2 rubric's on-disk dimension
// names to the canonical names used everywhere else in the pipeline
// (domain.AllRubricDimensions). v1-legacy caches used a different naming
// convention for the same 21 axes; this map lets C4 read either without
// branching on version anywhere but here (§9 design note).
var RubricDimensionV2ToCanonical = map[string]string{
	"authenticity":        "ps_authenticity",
	"self_awareness":       "ps_self_awareness",
	"motivation_clarity":   "ps_motivation_clarity",
	"writing_quality":      "ps_writing_quality",
	"resilience":           "ps_resilience",
	"specificity":          "ps_specificity",
	"coherence":            "ps_coherence",
	"research_depth":       "exp_research_depth",
	"clinical_depth":       "exp_clinical_depth",
	"volunteering_depth":   "exp_volunteering_depth",
	"community_depth":      "exp_community_depth",
	"shadowing_depth":      "exp_shadowing_depth",
	"leadership_depth":     "exp_leadership_depth",
	"reflection":           "exp_reflection",
	"initiative":           "exp_initiative",
	"impact":               "exp_impact",
	"fit":                  "sec_fit",
	"diversity_contribution": "sec_diversity_contribution",
	"adversity_response":   "sec_adversity_response",
	"professionalism":      "sec_professionalism",
	"secondary_specificity": "sec_specificity",
}

// RubricDimensionV1ToCanonical maps the v1-legacy cache's dimension
// names (a numbered-prefix scheme such as ps1_, exp1_, sec1_ from the
// original scale) to the same canonical set.
var RubricDimensionV1ToCanonical = map[string]string{
	"ps1_authenticity": "ps_authenticity", "ps2_self_awareness": "ps_self_awareness",
	"ps3_motivation": "ps_motivation_clarity", "ps4_writing": "ps_writing_quality",
	"ps5_resilience": "ps_resilience", "ps6_specificity": "ps_specificity",
	"ps7_coherence": "ps_coherence",
	"exp1_research": "exp_research_depth", "exp2_clinical": "exp_clinical_depth",
	"exp3_volunteering": "exp_volunteering_depth", "exp4_community": "exp_community_depth",
	"exp5_shadowing": "exp_shadowing_depth", "exp6_leadership": "exp_leadership_depth",
	"exp7_reflection": "exp_reflection", "exp8_initiative": "exp_initiative",
	"exp9_impact": "exp_impact",
	"sec1_fit": "sec_fit", "sec2_diversity": "sec_diversity_contribution",
	"sec3_adversity": "sec_adversity_response", "sec4_professional": "sec_professionalism",
	"sec5_specificity": "sec_specificity",
}

// RescaleV2ToV1 converts a v2-scale (1..4) integer score to the
// v1-compatible scale (1..5) via the documented proxy formula (§9 open
// question 1): score' = 1 + (score-1)*4/3. The core tolerates both scales
// without deciding which is authoritative.
func RescaleV2ToV1(score int) float64 {
	return 1 + float64(score-1)*4.0/3.0
}

// CanonicalDimensionName resolves a raw dimension key from either rubric
// format to its canonical name, returning ("", false) if unrecognized.
func CanonicalDimensionName(raw string, version domain.RubricFormatVersion) (string, bool) {
	if version == domain.RubricV1 {
		name, ok := RubricDimensionV1ToCanonical[raw]
		return name, ok
	}
	name, ok := RubricDimensionV2ToCanonical[raw]
	return name, ok
}
