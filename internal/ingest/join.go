package ingest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/admissions-triage/core/internal/domain"
)

var yesValues = map[string]bool{
	"yes": true, "y": true, "true": true, "1": true,
}
var noValues = map[string]bool{
	"no": true, "n": true, "false": true, "0": true,
}

// normalizeBinary converts Yes/No, Y/N, True/False, 1/0 to an int 0/1.
// Unrecognized values default to 0 (§4.2 stage 5).
func normalizeBinary(s string) int {
	v := strings.ToLower(strings.TrimSpace(s))
	if yesValues[v] {
		return 1
	}
	if noValues[v] {
		return 0
	}
	return 0
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		return int(f), true
	}
	return v, true
}

// buildApplicant joins one applicant row with its aggregates into a
// domain.Applicant, normalizing binary columns and dropping
// high-missingness fields (§4.2 stages 4-5).
func buildApplicant(
	row map[string]string,
	appYear int,
	exp *experienceAggregate,
	languages float64,
	parentEdu float64,
	gpaTrend float64,
	experienceDescriptions map[string]string,
) domain.Applicant {
	id, _ := strconv.ParseInt(strings.TrimSpace(row["AMCAS_ID"]), 10, 64)

	a := domain.Applicant{
		AMCASID: id,
		AppYear: appYear,

		NumLanguages:           languages,
		ParentEducationOrdinal: parentEdu,

		FirstGeneration:               normalizeBinary(row["First_Generation_Ind"]),
		Disadvantaged:                 normalizeBinary(row["Disadvantaged_Ind"]),
		SESValue:                      normalizeBinary(row["SES_Value"]),
		PellGrant:                     normalizeBinary(row["Pell_Grant_Ind"]),
		FeeAssistance:                 normalizeBinary(row["Fee_Assistance_Ind"]),
		PaidEmploymentBefore18:        normalizeBinary(row["Paid_Employment_Before_18"]),
		ContributionToFamily:          normalizeBinary(row["Contribution_To_Family"]),
		ChildhoodMedicallyUnderserved: normalizeBinary(row["Childhood_Medically_Underserved"]),
		PriorApplied:                  normalizeBinary(row["Prior_Applied"]),
		MilitaryServiceFlag:           normalizeBinary(row["Military_Service_Flag"]),

		OverallGPA:      parseFloat(row["Total_GPA"]),
		BCPMGPA:         parseFloat(row["BCPM_GPA"]),
		GPATrendOrdinal: gpaTrend,

		PersonalStatement:      row["Personal_Statement"],
		SecondaryEssays:        row["Secondary_Application"],
		ExperienceDescriptions: experienceDescriptions,

		Gender:      row["Gender"],
		Race:        row["Race"],
		Citizenship: row["Citizenship"],
	}

	if v, ok := parseInt(row["MCAT_Total"]); ok {
		a.MCATTotal = &v
		a.MCATCoverage = true
	}
	if v, ok := parseInt(row["Application_Review_Score"]); ok {
		a.ApplicationReviewScore = &v
	}
	if v, ok := parseInt(row["Service_Rating_Numerical"]); ok {
		a.ServiceRating = &v
	}
	if v, ok := parseInt(row["Age"]); ok {
		a.Age = &v
	}

	if exp != nil {
		a.ResearchHours = exp.ResearchHours
		a.MedVolunteerHours = exp.MedVolunteerHours
		a.NonMedVolunteerHours = exp.NonMedVolunteerHours
		a.MedEmploymentHours = exp.MedEmploymentHours
		a.ShadowingHours = exp.ShadowingHours
		a.CommunityServiceHours = exp.CommunityServiceHours
		a.HealthcareHours = exp.HealthcareHours
		a.HasResearch = exp.HasResearch
		a.HasDirectPatientCare = exp.HasDirectPatientCare
		a.HasVolunteering = exp.HasVolunteering
		a.HasCommunityService = exp.HasCommunityService
		a.HasShadowing = exp.HasShadowing
		a.HasClinicalExperience = exp.HasClinicalExperience
		a.HasLeadership = exp.HasLeadership
		a.HasMilitaryService = exp.HasMilitaryService
		a.HasHonors = exp.HasHonors
	}

	return a
}

// dedupeReapplicants keeps the most recent row per amcas_id by app_year,
// logging the count of rows dropped (§4.2 stage 6).
func dedupeReapplicants(applicants []domain.Applicant, report *domain.Report) []domain.Applicant {
	best := make(map[int64]domain.Applicant)
	for _, a := range applicants {
		cur, ok := best[a.AMCASID]
		if !ok || a.AppYear > cur.AppYear {
			best[a.AMCASID] = a
		}
	}

	dropped := len(applicants) - len(best)
	if dropped > 0 {
		report.Add(domain.NewQualityWarning(
			"deduplicated re-applicants to most recent cycle year",
			"applicants", "amcas_id", dropped, "",
		))
	}

	result := make([]domain.Applicant, 0, len(best))
	for _, a := range best {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AMCASID < result[j].AMCASID })
	return result
}
