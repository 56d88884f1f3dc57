package features

import (
	"fmt"

	"github.com/admissions-triage/core/internal/domain"
)

// numericValue returns the raw float64 value of a structured numeric
// column by its taxonomy.NumericFeatureColumns name.
func numericValue(a domain.Applicant, col string) (float64, error) {
	switch col {
	case "ResearchHours":
		return a.ResearchHours, nil
	case "MedVolunteerHours":
		return a.MedVolunteerHours, nil
	case "NonMedVolunteerHours":
		return a.NonMedVolunteerHours, nil
	case "MedEmploymentHours":
		return a.MedEmploymentHours, nil
	case "ShadowingHours":
		return a.ShadowingHours, nil
	case "CommunityServiceHours":
		return a.CommunityServiceHours, nil
	case "HealthcareHours":
		return a.HealthcareHours, nil
	case "NumLanguages":
		return a.NumLanguages, nil
	case "ParentEducationOrdinal":
		return a.ParentEducationOrdinal, nil
	case "NumDependents":
		return a.NumDependents, nil
	default:
		return 0, fmt.Errorf("unknown numeric feature column %q", col)
	}
}

// binaryValue returns the raw 0/1 value of a structured or derived binary
// column by its taxonomy.BinaryFeatureColumns name.
func binaryValue(a domain.Applicant, col string) (float64, error) {
	boolToF := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	switch col {
	case "FirstGeneration":
		return float64(a.FirstGeneration), nil
	case "Disadvantaged":
		return float64(a.Disadvantaged), nil
	case "SESValue":
		return float64(a.SESValue), nil
	case "PellGrant":
		return float64(a.PellGrant), nil
	case "FeeAssistance":
		return float64(a.FeeAssistance), nil
	case "PaidEmploymentBefore18":
		return float64(a.PaidEmploymentBefore18), nil
	case "ContributionToFamily":
		return float64(a.ContributionToFamily), nil
	case "ChildhoodMedicallyUnderserved":
		return float64(a.ChildhoodMedicallyUnderserved), nil
	case "PriorApplied":
		return float64(a.PriorApplied), nil
	case "MilitaryServiceFlag":
		return float64(a.MilitaryServiceFlag), nil
	case "HasResearch":
		return boolToF(a.HasResearch), nil
	case "HasDirectPatientCare":
		return boolToF(a.HasDirectPatientCare), nil
	case "HasVolunteering":
		return boolToF(a.HasVolunteering), nil
	case "HasCommunityService":
		return boolToF(a.HasCommunityService), nil
	case "HasShadowing":
		return boolToF(a.HasShadowing), nil
	case "HasClinicalExperience":
		return boolToF(a.HasClinicalExperience), nil
	case "HasLeadership":
		return boolToF(a.HasLeadership), nil
	case "HasMilitaryService":
		return boolToF(a.HasMilitaryService), nil
	case "HasHonors":
		return boolToF(a.HasHonors), nil
	default:
		return 0, fmt.Errorf("unknown binary feature column %q", col)
	}
}

// academicValue returns the raw value of an academic column. MCATTotal is
// optional; ok reports whether it was present (false means the fitted
// median must be substituted by the caller).
func academicValue(a domain.Applicant, col string) (value float64, ok bool, err error) {
	switch col {
	case "OverallGPA":
		return a.OverallGPA, true, nil
	case "BCPMGPA":
		return a.BCPMGPA, true, nil
	case "MCATTotal":
		if a.MCATTotal == nil {
			return 0, false, nil
		}
		return float64(*a.MCATTotal), true, nil
	case "MCATCoverage":
		if a.MCATCoverage {
			return 1, true, nil
		}
		return 0, true, nil
	case "GPATrendOrdinal":
		return a.GPATrendOrdinal, true, nil
	default:
		return 0, false, fmt.Errorf("unknown academic feature column %q", col)
	}
}
