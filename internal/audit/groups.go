package audit

import (
	"strconv"

	"github.com/admissions-triage/core/internal/domain"
)

// AttributeValue extracts the group label for one protected attribute off
// an applicant, for use as the Group field of an ApplicantOutcome (§4.6:
// "gender, age-band, race, citizenship" plus the first_generation/ses_value
// ablation axes used in the intersectional slices).
func AttributeValue(applicant domain.Applicant, attribute string) string {
	switch attribute {
	case "gender":
		return orUnknown(applicant.Gender)
	case "race":
		return orUnknown(applicant.Race)
	case "citizenship":
		return orUnknown(applicant.Citizenship)
	case "age_band":
		return ageBand(applicant.Age)
	case "first_generation":
		return strconv.Itoa(applicant.FirstGeneration)
	case "ses_value":
		return strconv.Itoa(applicant.SESValue)
	default:
		return "unknown"
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// ageBand buckets age into four admissions-relevant bands. No boundary is
// named in the original data dictionary, so this follows the same
// four-bucket granularity the tier and rubric-scale splits use elsewhere
// in this pipeline rather than inventing a finer one.
func ageBand(age *int) string {
	if age == nil {
		return "unknown"
	}
	switch {
	case *age < 23:
		return "under_23"
	case *age < 27:
		return "23_26"
	case *age < 32:
		return "27_31"
	default:
		return "32_plus"
	}
}

// IntersectionValue combines two attribute group labels into one
// intersectional group key.
func IntersectionValue(applicant domain.Applicant, attrA, attrB string) string {
	return IntersectionGroup(AttributeValue(applicant, attrA), AttributeValue(applicant, attrB))
}
