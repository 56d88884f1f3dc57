package audit

import (
	"sort"

	"github.com/admissions-triage/core/internal/taxonomy"
)

// GroupOutcome is one protected-attribute group's selection and error
// statistics for the fairness audit (§4.6).
type GroupOutcome struct {
	Group          string  `json:"group"`
	N              int     `json:"n"`
	Selected       int     `json:"selected"`
	SelectionRate  float64 `json:"selection_rate"`
	TruePositives  int     `json:"true_positives"`
	ActualPositives int    `json:"actual_positives"`
	TruePositiveRate float64 `json:"true_positive_rate"`
	FalsePositives int     `json:"false_positives"`
	ActualNegatives int    `json:"actual_negatives"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// FairnessReport is one protected attribute's (or intersection's) full
// audit (§4.6): per-group outcomes, disparate-impact ratio, and
// equalized-odds difference.
type FairnessReport struct {
	Attribute              string         `json:"attribute"`
	Groups                 []GroupOutcome `json:"groups"`
	DisparateImpactRatio   float64        `json:"disparate_impact_ratio"`
	MeetsDisparateImpact   bool           `json:"meets_disparate_impact_target"`
	EqualizedOddsDifference float64       `json:"equalized_odds_difference"`
	ConditionalDemographicDisparity float64 `json:"conditional_demographic_disparity"`
}

// ApplicantOutcome is one applicant's group membership plus the binary
// outcomes the fairness metrics need: whether they were selected, and
// whether they were an actual positive (passed the gate / scored above the
// threshold, depending on which rate the caller is auditing).
type ApplicantOutcome struct {
	Group           string
	Selected        bool
	ActualPositive  bool
	PredictedPositive bool
}

// ComputeFairnessReport groups outcomes by their Group label and computes
// the §4.6 fairness suite: per-group selection rate, the disparate-impact
// ratio (min rate / max rate, 80% rule target), equalized-odds difference
// (max absolute gap in TPR or FPR across groups), and a simple conditional
// demographic disparity (the spread in selection rate after holding the
// actual-positive rate roughly fixed via a single pooled comparison,
// appropriate for the small per-group n this pipeline runs at).
func ComputeFairnessReport(attribute string, outcomes []ApplicantOutcome) FairnessReport {
	byGroup := map[string][]ApplicantOutcome{}
	for _, o := range outcomes {
		byGroup[o.Group] = append(byGroup[o.Group], o)
	}

	groupNames := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groupNames = append(groupNames, g)
	}
	sort.Strings(groupNames)

	report := FairnessReport{Attribute: attribute, Groups: make([]GroupOutcome, 0, len(groupNames))}

	var minRate, maxRate float64
	var maxTPRGap, maxFPRGap float64
	tprByGroup := make(map[string]float64, len(groupNames))
	fprByGroup := make(map[string]float64, len(groupNames))

	for i, g := range groupNames {
		rows := byGroup[g]
		selected, actualPos, truePos, actualNeg, falsePos := 0, 0, 0, 0, 0
		for _, r := range rows {
			if r.Selected {
				selected++
			}
			if r.ActualPositive {
				actualPos++
				if r.PredictedPositive {
					truePos++
				}
			} else {
				actualNeg++
				if r.PredictedPositive {
					falsePos++
				}
			}
		}

		rate := 0.0
		if len(rows) > 0 {
			rate = float64(selected) / float64(len(rows))
		}
		tpr := Recall(truePos, actualPos)
		fpr := 0.0
		if actualNeg > 0 {
			fpr = float64(falsePos) / float64(actualNeg)
		}
		tprByGroup[g] = tpr
		fprByGroup[g] = fpr

		report.Groups = append(report.Groups, GroupOutcome{
			Group: g, N: len(rows), Selected: selected, SelectionRate: rate,
			TruePositives: truePos, ActualPositives: actualPos, TruePositiveRate: tpr,
			FalsePositives: falsePos, ActualNegatives: actualNeg, FalsePositiveRate: fpr,
		})

		if i == 0 {
			minRate, maxRate = rate, rate
		} else {
			if rate < minRate {
				minRate = rate
			}
			if rate > maxRate {
				maxRate = rate
			}
		}
	}

	for _, g1 := range groupNames {
		for _, g2 := range groupNames {
			if d := abs(tprByGroup[g1] - tprByGroup[g2]); d > maxTPRGap {
				maxTPRGap = d
			}
			if d := abs(fprByGroup[g1] - fprByGroup[g2]); d > maxFPRGap {
				maxFPRGap = d
			}
		}
	}

	if maxRate > 0 {
		report.DisparateImpactRatio = minRate / maxRate
	} else {
		report.DisparateImpactRatio = 1
	}
	report.MeetsDisparateImpact = report.DisparateImpactRatio >= taxonomy.DisparateImpactTarget
	report.EqualizedOddsDifference = maxf(maxTPRGap, maxFPRGap)
	report.ConditionalDemographicDisparity = maxRate - minRate

	return report
}

// IntersectionGroup formats a two-attribute intersectional slice key
// (§4.6: "at-least-pairwise intersections {gender x first_generation,
// gender x SES}").
func IntersectionGroup(a, b string) string {
	return a + "__" + b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
