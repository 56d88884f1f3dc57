package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/taxonomy"
)

// experienceAggregate holds one applicant's summed hours and derived
// presence flags after grouping the experiences table (§4.2 stage 3).
type experienceAggregate struct {
	ResearchHours         float64
	MedVolunteerHours     float64
	NonMedVolunteerHours  float64
	MedEmploymentHours    float64
	ShadowingHours        float64
	CommunityServiceHours float64
	HealthcareHours       float64
	HasResearch           bool
	HasDirectPatientCare  bool
	HasVolunteering       bool
	HasCommunityService   bool
	HasShadowing          bool
	HasClinicalExperience bool
	HasLeadership         bool
	HasMilitaryService    bool
	HasHonors             bool
}

const unitMismatchMedianHours = 10000

// aggregateExperiences groups the experiences table by amcas_id, summing
// hours by bucket and deriving presence flags via the type->flag map.
// Unknown experience types are logged as a QualityWarning and ignored for
// flag purposes, never failed (§4.2 stage 3).
func aggregateExperiences(t *rawTable, idCol string, report *domain.Report) map[string]*experienceAggregate {
	result := make(map[string]*experienceAggregate)
	unknownTypes := make(map[string]int)
	var allHours []float64

	for _, row := range t.Rows {
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		agg, ok := result[id]
		if !ok {
			agg = &experienceAggregate{}
			result[id] = agg
		}

		expType := strings.TrimSpace(row["Exp_Type"])
		hours := parseFloat(row["Exp_Hour_Total"])
		allHours = append(allHours, hours)

		switch bucketForType(expType) {
		case "research":
			agg.ResearchHours += hours
		case "med_volunteer":
			agg.MedVolunteerHours += hours
		case "non_med_volunteer":
			agg.NonMedVolunteerHours += hours
		case "med_employment":
			agg.MedEmploymentHours += hours
		case "shadowing":
			agg.ShadowingHours += hours
		case "community_service":
			agg.CommunityServiceHours += hours
		case "healthcare":
			agg.HealthcareHours += hours
		}

		flag, ok := taxonomy.ExperienceTypeToFlag[expType]
		if !ok {
			if expType != "" {
				unknownTypes[expType]++
			}
			continue
		}
		applyFlag(agg, flag)
	}

	for t, count := range unknownTypes {
		report.Add(domain.NewQualityWarning(
			fmt.Sprintf("unknown experience type %q encountered, mapped to ignored", t),
			"experiences", "Exp_Type", count, "add a mapping in taxonomy.ExperienceTypeToFlag",
		))
	}

	if median := medianOf(allHours); median > unitMismatchMedianHours {
		report.Add(domain.NewUnitMismatch(
			fmt.Sprintf("median Exp_Hour_Total is %.0f, suspiciously high for an hours column", median),
			"Exp_Hour_Total", "check whether hours were logged in minutes; divide by 60",
		))
	}

	return result
}

func applyFlag(agg *experienceAggregate, flag string) {
	switch flag {
	case "HasResearch":
		agg.HasResearch = true
	case "HasDirectPatientCare":
		agg.HasDirectPatientCare = true
	case "HasVolunteering":
		agg.HasVolunteering = true
	case "HasCommunityService":
		agg.HasCommunityService = true
	case "HasShadowing":
		agg.HasShadowing = true
	case "HasClinicalExperience":
		agg.HasClinicalExperience = true
	case "HasLeadership":
		agg.HasLeadership = true
	case "HasMilitaryService":
		agg.HasMilitaryService = true
	case "HasHonors":
		agg.HasHonors = true
	}
}

func bucketForType(expType string) string {
	switch expType {
	case "Research":
		return "research"
	case "Clinical Volunteer":
		return "med_volunteer"
	case "Non-Clinical Volunteer":
		return "non_med_volunteer"
	case "Community Service":
		return "community_service"
	case "Clinical Employment":
		return "med_employment"
	case "Healthcare Employment":
		return "healthcare"
	case "Shadowing", "Physician Shadowing":
		return "shadowing"
	default:
		return ""
	}
}

// aggregateExperienceDescriptions groups free-text experience descriptions
// by applicant and experience type, concatenating multiple entries of the
// same type. This text is an LLM input only (§4.3's per-experience
// descriptions keyed by experience type) and never enters the feature
// vector (§4.2 stage 3).
func aggregateExperienceDescriptions(t *rawTable, idCol string) map[string]map[string]string {
	result := make(map[string]map[string]string)
	for _, row := range t.Rows {
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		text := strings.TrimSpace(row["Exp_Description"])
		if text == "" {
			continue
		}
		expType := strings.TrimSpace(row["Exp_Type"])
		if expType == "" {
			expType = "Other"
		}

		byType, ok := result[id]
		if !ok {
			byType = make(map[string]string)
			result[id] = byType
		}
		if existing, ok := byType[expType]; ok {
			byType[expType] = existing + "\n\n" + text
		} else {
			byType[expType] = text
		}
	}
	return result
}

// aggregateLanguages counts rows per applicant (§4.2 stage 3).
func aggregateLanguages(t *rawTable, idCol string) map[string]float64 {
	counts := make(map[string]float64)
	for _, row := range t.Rows {
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		counts[id]++
	}
	return counts
}

// aggregateParents takes the max over the ordinal education map per
// applicant; unrecognized labels default to "Some college" with a
// warning (§4.2 stage 3).
func aggregateParents(t *rawTable, idCol string, report *domain.Report) map[string]float64 {
	result := make(map[string]float64)
	unknownCount := 0

	for _, row := range t.Rows {
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		label := strings.TrimSpace(row["Parent_Education"])
		ordinal, ok := taxonomy.ParentEducationOrdinal[label]
		if !ok {
			ordinal = taxonomy.DefaultParentEducationOrdinal
			if label != "" {
				unknownCount++
			}
		}
		if cur, exists := result[id]; !exists || float64(ordinal) > cur {
			result[id] = float64(ordinal)
		}
	}

	if unknownCount > 0 {
		report.Add(domain.NewQualityWarning(
			fmt.Sprintf("%d unrecognized parent-education label(s), defaulted to ordinal %d", unknownCount, taxonomy.DefaultParentEducationOrdinal),
			"parents", "Parent_Education", unknownCount, "add a mapping in taxonomy.ParentEducationOrdinal",
		))
	}

	return result
}

// aggregateGPATrend converts the trend category string to an ordinal per
// applicant (§4.2 stage 3).
func aggregateGPATrend(t *rawTable, idCol string) map[string]float64 {
	result := make(map[string]float64)
	for _, row := range t.Rows {
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		label := strings.TrimSpace(row["GPA_Trend"])
		if ordinal, ok := taxonomy.GPATrendOrdinal[label]; ok {
			result[id] = float64(ordinal)
		}
	}
	return result
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
