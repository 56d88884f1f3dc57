package taxonomy

// NumericFeatureColumns are the structured numeric columns extracted in a
// stable order during C4 step 1.
var NumericFeatureColumns = []string{
	"ResearchHours", "MedVolunteerHours", "NonMedVolunteerHours",
	"MedEmploymentHours", "ShadowingHours", "CommunityServiceHours",
	"HealthcareHours", "NumLanguages", "ParentEducationOrdinal", "NumDependents",
}

// BinaryFeatureColumns are the structured binary indicators extracted in
// C4 step 1, plus the 9 derived experience-presence flags.
var BinaryFeatureColumns = []string{
	"FirstGeneration", "Disadvantaged", "SESValue", "PellGrant", "FeeAssistance",
	"PaidEmploymentBefore18", "ContributionToFamily", "ChildhoodMedicallyUnderserved",
	"PriorApplied", "MilitaryServiceFlag",
	"HasResearch", "HasDirectPatientCare", "HasVolunteering", "HasCommunityService",
	"HasShadowing", "HasClinicalExperience", "HasLeadership", "HasMilitaryService",
	"HasHonors",
}

// AcademicFeatureColumns are the 4 academic columns (§3: "4 academic") plus
// the GPA-trend ordinal derived from the gpa_trend logical file (§4.4).
var AcademicFeatureColumns = []string{
	"OverallGPA", "BCPMGPA", "MCATTotal", "MCATCoverage", "GPATrendOrdinal",
}

// EngineeredFeatureColumns are the five composite features enumerated in
// C4 step 2 (the step's parenthetical count of "four" undercounts its own
// bullet list by one; the bullet list is authoritative — see DESIGN.md).
// Order matches the definitions in §4.4.
var EngineeredFeatureColumns = []string{
	"CommunityEngagedRatio", "DirectCareRatio", "AdversityCount", "GritIndex",
	"ExperienceDiversity",
}

// AdversityFlags are the five SES indicator flags summed into
// Adversity_Count (§4.4 step 2).
var AdversityFlags = []string{
	"FirstGeneration", "Disadvantaged", "SESValue", "PellGrant", "FeeAssistance",
}

// GritExtraFlags are the three extra resilience flags added to
// Adversity_Count to form Grit_Index (§4.4 step 2).
var GritExtraFlags = []string{
	"PaidEmploymentBefore18", "ContributionToFamily", "ChildhoodMedicallyUnderserved",
}

// ProtectedColumns mirrors domain.ProtectedAttributeNames for taxonomy
// consumers that only need the name list, not the membership map.
var ProtectedColumns = []string{"gender", "age", "race", "citizenship"}
