package taxonomy

// ColumnAliases maps a lowercased, whitespace-normalized raw header to its
// canonical applicant-table column name. Only headers with a non-obvious
// mapping need an entry; everything else is title-cased as-is.
var ColumnAliases = map[string]string{
	"amcas_id":          "AMCAS_ID",
	"amcas#":            "AMCAS_ID",
	"amcasid":           "AMCAS_ID",
	"applicant_id":      "AMCAS_ID",
	"app_year":          "App_Year",
	"cycle_year":        "App_Year",
	"application_year":  "App_Year",
	"exp_hour_total":    "Exp_Hour_Total",
	"total_hours":       "Exp_Hour_Total",
	"exp_hour_research": "Exp_Hour_Research",
	"exp_hour_shadowing": "Exp_Hour_Shadowing",
	"disadvantanged_ind": "Disadvantaged_Ind", // typo alias, see TypoPatches
	"disadvantaged_ind": "Disadvantaged_Ind",
	"ses_value":         "SES_Value",
	"first_gen_ind":     "First_Generation_Ind",
	"first_generation":  "First_Generation_Ind",
	"pell_grant_ind":    "Pell_Grant_Ind",
	"fee_assistance_ind": "Fee_Assistance_Ind",
	"num_dependents":    "Num_Dependents",
	"num_languages":     "Num_Languages",
	"overall_gpa":       "Total_GPA",
	"total_gpa":         "Total_GPA",
	"bcpm_gpa":          "BCPM_GPA",
	"mcat_total":        "MCAT_Total",
	"mcat_total_score":  "MCAT_Total",
	"application_review_score": "Application_Review_Score",
	"review_score":      "Application_Review_Score",
	"service_rating_numerical": "Service_Rating_Numerical",
	"service_rating":    "Service_Rating_Numerical",
	"gender":            "Gender",
	"race":              "Race",
	"citizenship":       "Citizenship",
	"age":               "Age",
	"personal_statement": "Personal_Statement",
	"ps_text":           "Personal_Statement",
	"secondary_application": "Secondary_Application",
	"secondary_text":    "Secondary_Application",
}

// TypoPatches rewrites specific known-bad headers to their corrected
// canonical form before general alias resolution runs (§4.2 stage 1).
var TypoPatches = map[string]string{
	"Disadvantanged_Ind": "Disadvantaged_Ind",
}

// IDColumnAliases is the set of (lowercased, canonicalized) column names
// that identify the applicant-ID column in any raw table.
var IDColumnAliases = map[string]bool{
	"amcas_id": true,
}

// HighMissingnessColumns lists sparse free-text columns, configured per
// observed sparsity, not derived at runtime. No ingest stage reads this
// map; these columns stay out of domain.Applicant only because
// buildApplicant copies the columns it names and none of these is among
// them.
var HighMissingnessColumns = map[string]bool{
	"Interview_Notes":    true,
	"Committee_Comments":  true,
	"Waitlist_Reason":    true,
}

// ExperienceTypeToFlag maps a raw experience-type label to the presence
// flag it sets on the applicant record. Hours are always summed into the
// matching hour bucket regardless of this map; unknown types are logged
// as a QualityWarning and ignored for flag purposes, never failed.
var ExperienceTypeToFlag = map[string]string{
	"Research":            "HasResearch",
	"Shadowing":           "HasShadowing",
	"Clinical Volunteer":  "HasClinicalExperience",
	"Clinical Employment": "HasClinicalExperience",
	"Non-Clinical Volunteer": "HasVolunteering",
	"Community Service":   "HasCommunityService",
	"Healthcare Employment": "HasDirectPatientCare",
	"Leadership":          "HasLeadership",
	"Military Service":    "HasMilitaryService",
	"Honors/Awards":       "HasHonors",
	"Physician Shadowing": "HasShadowing",
}

// ParentEducationOrdinal maps a raw parent-education label to its ordinal
// rank. Values outside this map default to "Some college" (ordinal 2)
// with a QualityWarning (§4.2 stage 3).
var ParentEducationOrdinal = map[string]int{
	"Less than high school": 0,
	"High school graduate":  1,
	"Some college":          2,
	"Associate degree":      3,
	"Bachelor's degree":     4,
	"Graduate degree":       5,
}

// DefaultParentEducationOrdinal is used when a raw label is unrecognized.
const DefaultParentEducationOrdinal = 2

// GPATrendOrdinal maps a raw GPA-trend category string to an ordinal.
var GPATrendOrdinal = map[string]int{
	"Declining":      0,
	"Flat":           1,
	"Improving":      2,
	"Sharply Improving": 3,
}

// RowCountPlausibleBand gives the [min, max] expected row count per
// logical file, used to emit a QualityWarning when a cycle's file falls
// outside the expected band (§4.2 failure modes).
type Band struct {
	Min, Max int
}

var RowCountPlausibleBand = map[string]Band{
	"applicants":            {Min: 500, Max: 20000},
	"experiences":           {Min: 1000, Max: 200000},
	"personal_statement":    {Min: 500, Max: 20000},
	"secondary_applications": {Min: 200, Max: 20000},
	"gpa_trend":             {Min: 500, Max: 20000},
	"languages":             {Min: 100, Max: 40000},
	"parents":               {Min: 500, Max: 40000},
}

// RequiredLogicalFiles are the logical file names that must be present
// for a cycle to be ingested (§4.2).
var RequiredLogicalFiles = []string{
	"applicants", "experiences", "personal_statement",
	"secondary_applications", "gpa_trend", "languages", "parents",
}

// OptionalLogicalFiles may be absent without failing ingestion.
var OptionalLogicalFiles = []string{"schools", "letters"}

// CoverageThreshold is the minimum fraction of applicant IDs an auxiliary
// file's ID set must cover before a QualityWarning fires (§4.2, §7).
var CoverageThreshold = map[string]float64{
	"personal_statement":     0.99,
	"secondary_applications": 0.70,
	"experiences":            0.95,
}
