package domain

import (
	"fmt"
	"time"
)

// Applicant is one row of the unified frame produced by data preparation
// (C2): a single applicant in a single cycle year, after column
// normalization, 1-to-many aggregation, and left-join onto the applicant
// table. Re-applicants are deduplicated to their most recent AppYear before
// this struct is constructed for training.
type Applicant struct {
	// Identifiers
	AMCASID int64 `json:"amcas_id"`
	AppYear int    `json:"app_year"`

	// Target (training only)
	ApplicationReviewScore *int `json:"application_review_score,omitempty"` // 0-25
	ServiceRating          *int `json:"service_rating,omitempty"`           // 1-4 ordinal

	// Structured numeric: experience-hour totals by domain
	ResearchHours          float64 `json:"research_hours"`
	MedVolunteerHours      float64 `json:"med_volunteer_hours"`
	NonMedVolunteerHours   float64 `json:"non_med_volunteer_hours"`
	MedEmploymentHours     float64 `json:"med_employment_hours"`
	ShadowingHours         float64 `json:"shadowing_hours"`
	CommunityServiceHours  float64 `json:"community_service_hours"`
	HealthcareHours        float64 `json:"healthcare_hours"`
	NumLanguages           float64 `json:"num_languages"`
	ParentEducationOrdinal float64 `json:"parent_education_ordinal"`
	NumDependents          float64 `json:"num_dependents"`

	// Binary indicators (0/1, normalized from Yes/No, Y/N, True/False, 1/0)
	FirstGeneration             int `json:"first_generation"`
	Disadvantaged               int `json:"disadvantaged_ind"`
	SESValue                    int `json:"ses_value"`
	PellGrant                   int `json:"pell_grant"`
	FeeAssistance               int `json:"fee_assistance"`
	PaidEmploymentBefore18      int `json:"paid_employment_before_18"`
	ContributionToFamily        int `json:"contribution_to_family"`
	ChildhoodMedicallyUnderserved int `json:"childhood_medically_underserved"`
	PriorApplied                int `json:"prior_applied"`
	MilitaryServiceFlag          int `json:"military_service_flag"`

	// Experience presence flags, derived during aggregation (C2 stage 3)
	HasResearch            bool `json:"has_research"`
	HasDirectPatientCare   bool `json:"has_direct_patient_care"`
	HasVolunteering        bool `json:"has_volunteering"`
	HasCommunityService    bool `json:"has_community_service"`
	HasShadowing           bool `json:"has_shadowing"`
	HasClinicalExperience  bool `json:"has_clinical_experience"`
	HasLeadership          bool `json:"has_leadership"`
	HasMilitaryService     bool `json:"has_military_service"`
	HasHonors              bool `json:"has_honors"`

	// Academic
	OverallGPA      float64 `json:"overall_gpa"`
	BCPMGPA         float64 `json:"bcpm_gpa"`
	MCATTotal       *int    `json:"mcat_total,omitempty"`
	MCATCoverage    bool    `json:"mcat_coverage"`
	GPATrendOrdinal float64 `json:"gpa_trend_ordinal"`

	// Free text, LLM inputs only — never persisted in the feature vector
	PersonalStatement       string            `json:"personal_statement,omitempty"`
	SecondaryEssays         string            `json:"secondary_essays,omitempty"`
	ExperienceDescriptions  map[string]string `json:"experience_descriptions,omitempty"`

	// Protected attributes — fairness audit only, never a model input
	Gender      string `json:"gender,omitempty"`
	Age         *int   `json:"age,omitempty"`
	Race        string `json:"race,omitempty"`
	Citizenship string `json:"citizenship,omitempty"`
}

// ProtectedAttributeNames is the set of column names the feature pipeline
// must reject even if config has drifted (§4.1, §4.4).
var ProtectedAttributeNames = map[string]bool{
	"gender":      true,
	"age":         true,
	"race":        true,
	"citizenship": true,
}

// RubricScore is the LLM-scored record for one applicant, keyed by
// (AMCASID, FormatVersion) in the resumable cache (§3, §6).
type RubricScore struct {
	AMCASID       int64               `json:"amcas_id"`
	FormatVersion RubricFormatVersion `json:"format_version"`
	PromptHash    string              `json:"prompt_hash"`
	ModelVersion  string              `json:"model_version"`
	ScoredAt      time.Time           `json:"scored_at"`
	Scores        map[string]*int     `json:"scores"`  // dimension -> score, nil = null
	Details       map[string]Evidence `json:"details"` // dimension -> evidence/reasoning
}

// Evidence is the optional per-dimension justification the rubric scorer
// records alongside each integer score.
type Evidence struct {
	Evidence       string `json:"evidence,omitempty"`
	ReasoningSteps string `json:"reasoning_steps,omitempty"`
}

// PersonalStatementDimensions are the 7 atomic scoring axes over the
// personal statement.
var PersonalStatementDimensions = []string{
	"ps_authenticity", "ps_self_awareness", "ps_motivation_clarity",
	"ps_writing_quality", "ps_resilience", "ps_specificity", "ps_coherence",
}

// ExperienceDimensions are the 9 atomic scoring axes over experience
// descriptions.
var ExperienceDimensions = []string{
	"exp_research_depth", "exp_clinical_depth", "exp_volunteering_depth",
	"exp_community_depth", "exp_shadowing_depth", "exp_leadership_depth",
	"exp_reflection", "exp_initiative", "exp_impact",
}

// SecondaryEssayDimensions are the 5 atomic scoring axes over secondary
// application essays.
var SecondaryEssayDimensions = []string{
	"sec_fit", "sec_diversity_contribution", "sec_adversity_response",
	"sec_professionalism", "sec_specificity",
}

// AllRubricDimensions is the full 21-dimension set.
func AllRubricDimensions() []string {
	all := make([]string, 0, 21)
	all = append(all, PersonalStatementDimensions...)
	all = append(all, ExperienceDimensions...)
	all = append(all, SecondaryEssayDimensions...)
	return all
}

// IsComplete reports whether all 21 dimensions are present and non-null —
// the condition under which --resume skips an applicant entirely (§4.3).
func (r *RubricScore) IsComplete() bool {
	for _, dim := range AllRubricDimensions() {
		v, ok := r.Scores[dim]
		if !ok || v == nil {
			return false
		}
	}
	return true
}

// Validate clips any out-of-range score to the format's scale and reports
// the clip as a domain.PipelineError (QualityWarning), per §3's invariant
// that rubric scores lie in [1, scale_max] after validation.
func (r *RubricScore) Validate() []*PipelineError {
	var warnings []*PipelineError
	scaleMax := r.FormatVersion.ScaleMax()
	for dim, score := range r.Scores {
		if score == nil {
			continue
		}
		v := *score
		if v < 1 {
			clipped := 1
			r.Scores[dim] = &clipped
			warnings = append(warnings, NewQualityWarning(
				fmt.Sprintf("rubric score %d below scale minimum, clipped to 1", v),
				"rubric_cache", dim, 1, "check prompt anchors for dimension "+dim))
		} else if v > scaleMax {
			clipped := scaleMax
			r.Scores[dim] = &clipped
			warnings = append(warnings, NewQualityWarning(
				fmt.Sprintf("rubric score %d above scale maximum %d, clipped", v, scaleMax),
				"rubric_cache", dim, 1, "check prompt anchors for dimension "+dim))
		}
	}
	return warnings
}

// FeatureVector is one row of the fitted feature matrix: a fixed,
// fit-time-ordered slice of float64 values keyed by name via
// FeaturePipeline.Columns(). The protected attribute set never appears
// here (§3 invariant).
type FeatureVector struct {
	AMCASID int64
	Values  []float64
}

// TriageResult is the §6 consumer-facing contract for one applicant.
type TriageResult struct {
	AMCASID        int64           `json:"amcas_id"`
	PredictedScore float64         `json:"predicted_score"`
	PLow           float64         `json:"p_low"`
	Tier           Tier            `json:"tier"`
	GatePassed     bool            `json:"gate_passed"`
	Rank           *int            `json:"rank,omitempty"`
	Confidence     ConfidenceLevel `json:"confidence"`
	DriftFlags     []string        `json:"drift_flags,omitempty"`
	State          GateState       `json:"state"`
}
