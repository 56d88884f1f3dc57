package features

import "github.com/admissions-triage/core/internal/domain"

// ratio returns numerator/(numerator+denominator), or 0 when both inputs
// sum to 0 (§4.4 step 2: "Composites are never scored without
// their constituent inputs; zero-valued constituents yield a zero ratio,
// not NaN").
func ratio(numerator, denominator float64) float64 {
	total := numerator + denominator
	if total == 0 {
		return 0
	}
	return numerator / total
}

// engineeredFeatures computes the five composite features in the fixed
// order of taxonomy.EngineeredFeatureColumns.
func engineeredFeatures(a domain.Applicant) []float64 {
	communityEngagedRatio := ratio(a.NonMedVolunteerHours, a.MedVolunteerHours)
	directCareRatio := ratio(a.MedEmploymentHours, a.ShadowingHours)

	adversityCount := sumBoolFlags(a, []func(domain.Applicant) bool{
		func(a domain.Applicant) bool { return a.FirstGeneration == 1 },
		func(a domain.Applicant) bool { return a.Disadvantaged == 1 },
		func(a domain.Applicant) bool { return a.SESValue == 1 },
		func(a domain.Applicant) bool { return a.PellGrant == 1 },
		func(a domain.Applicant) bool { return a.FeeAssistance == 1 },
	})

	gritExtra := sumBoolFlags(a, []func(domain.Applicant) bool{
		func(a domain.Applicant) bool { return a.PaidEmploymentBefore18 == 1 },
		func(a domain.Applicant) bool { return a.ContributionToFamily == 1 },
		func(a domain.Applicant) bool { return a.ChildhoodMedicallyUnderserved == 1 },
	})
	gritIndex := adversityCount + gritExtra

	experienceDiversity := sumBoolFlags(a, []func(domain.Applicant) bool{
		func(a domain.Applicant) bool { return a.HasResearch },
		func(a domain.Applicant) bool { return a.HasDirectPatientCare },
		func(a domain.Applicant) bool { return a.HasVolunteering },
		func(a domain.Applicant) bool { return a.HasCommunityService },
		func(a domain.Applicant) bool { return a.HasShadowing },
		func(a domain.Applicant) bool { return a.HasClinicalExperience },
		func(a domain.Applicant) bool { return a.HasLeadership },
		func(a domain.Applicant) bool { return a.HasMilitaryService },
		func(a domain.Applicant) bool { return a.HasHonors },
	})

	return []float64{communityEngagedRatio, directCareRatio, adversityCount, gritIndex, experienceDiversity}
}

func sumBoolFlags(a domain.Applicant, predicates []func(domain.Applicant) bool) float64 {
	var sum float64
	for _, p := range predicates {
		if p(a) {
			sum++
		}
	}
	return sum
}
