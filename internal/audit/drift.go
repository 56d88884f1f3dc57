package audit

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/admissions-triage/core/internal/taxonomy"
)

// PSI computes the Population Stability Index between a training
// distribution and a scoring-time distribution over `buckets` equal-mass
// deciles of the training distribution (§4.6). A PSI of 0 on identical
// distributions is a universal invariant (§8 #10): binning scoring against
// the training quantiles means a scoring set identical to training always
// falls proportionally into the same buckets.
func (a *Auditor) PSI(training, scoring []float64, buckets int) float64 {
	if len(training) == 0 || len(scoring) == 0 || buckets <= 0 {
		return 0
	}

	edges := quantileEdges(training, buckets)

	trainCounts := bucketCounts(training, edges)
	scoreCounts := bucketCounts(scoring, edges)

	var psi float64
	for i := range trainCounts {
		expected := safeProportion(trainCounts[i], len(training))
		actual := safeProportion(scoreCounts[i], len(scoring))
		psi += (actual - expected) * math.Log(actual/expected)
	}
	return psi
}

// quantileEdges returns the buckets-1 internal cut points of values' empirical
// distribution, used as fixed bucket boundaries for both the training and
// scoring samples.
func quantileEdges(values []float64, buckets int) []float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	edges := make([]float64, buckets-1)
	for i := range edges {
		pos := float64(i+1) / float64(buckets) * float64(len(sorted)-1)
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		if lo == hi {
			edges[i] = sorted[lo]
			continue
		}
		frac := pos - float64(lo)
		edges[i] = sorted[lo]*(1-frac) + sorted[hi]*frac
	}
	return edges
}

func bucketCounts(values []float64, edges []float64) []int {
	counts := make([]int, len(edges)+1)
	for _, v := range values {
		b := sort.SearchFloat64s(edges, v)
		counts[b]++
	}
	return counts
}

// safeProportion floors a zero count at a small epsilon so PSI's log term
// never divides by or takes the log of zero on a sparse bucket.
func safeProportion(count, total int) float64 {
	const eps = 1e-4
	p := float64(count) / float64(total)
	if p < eps {
		return eps
	}
	return p
}

// KolmogorovSmirnovStatistic is the two-sample KS statistic: the maximum
// absolute difference between the two samples' empirical CDFs. No package
// in the retrieval pack exposes a two-sample KS test, so this follows the
// textbook definition directly over the pooled, sorted sample.
func KolmogorovSmirnovStatistic(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sa := append([]float64{}, a...)
	sb := append([]float64{}, b...)
	sort.Float64s(sa)
	sort.Float64s(sb)

	var maxDiff float64
	i, j := 0, 0
	na, nb := float64(len(sa)), float64(len(sb))
	for i < len(sa) || j < len(sb) {
		var x float64
		switch {
		case i >= len(sa):
			x = sb[j]
		case j >= len(sb):
			x = sa[i]
		default:
			x = math.Min(sa[i], sb[j])
		}
		for i < len(sa) && sa[i] <= x {
			i++
		}
		for j < len(sb) && sb[j] <= x {
			j++
		}
		diff := math.Abs(float64(i)/na - float64(j)/nb)
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff
}

// KolmogorovSmirnovPValue approximates the two-sided asymptotic p-value for
// a KS statistic via the Kolmogorov distribution's series expansion,
// truncated once terms become negligible.
func KolmogorovSmirnovPValue(d float64, n, m int) float64 {
	if n == 0 || m == 0 {
		return 1
	}
	ne := float64(n) * float64(m) / float64(n+m)
	lambda := (math.Sqrt(ne) + 0.12 + 0.11/math.Sqrt(ne)) * d

	var sum float64
	converged := false
	for k := 1; k <= 100; k++ {
		term := 2 * math.Pow(-1, float64(k-1)) * math.Exp(-2*float64(k)*float64(k)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-10 {
			converged = true
			break
		}
	}
	// The series fails to converge only for lambda near 0, where the
	// p-value is 1.
	if !converged {
		return 1
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}

// Marginal is the per-feature training mean/stddev an audit compares a
// scoring pool against (mirrors internal/model.Marginal and
// internal/features.Marginal; kept independent so internal/audit does not
// import either package solely for a two-field struct).
type Marginal struct {
	Mean   float64
	StdDev float64
}

// FeatureDrift is one feature's drift verdict (§4.6).
type FeatureDrift struct {
	Feature        string  `json:"feature"`
	PSI            float64 `json:"psi"`
	KSStatistic    float64 `json:"ks_statistic"`
	KSPValue       float64 `json:"ks_p_value"`
	MeanShiftSigma float64 `json:"mean_shift_sigma"`
	Flagged        bool    `json:"flagged"`
	ScoringMean    float64 `json:"scoring_mean"`
	ScoringStdDev  float64 `json:"scoring_std_dev"`
	ScoringP95     float64 `json:"scoring_p95"`
}

// DriftReport is the per-run drift verdict across every configured feature
// (§4.6).
type DriftReport struct {
	Features     []FeatureDrift `json:"features"`
	GlobalAlert  bool           `json:"global_alert"`
	FlaggedCount int            `json:"flagged_count"`
}

// ComputeDriftReport evaluates PSI, KS, and mean-shift drift for every
// named feature column, comparing the scoring pool's column against the
// training marginal and raw training sample persisted in the model
// artifact. A feature is flagged when KS p < KSPValueThreshold OR the mean
// shift exceeds MeanShiftSigmaThreshold sigma; the global alert fires when
// more than GlobalDriftFractionFlag of features are flagged (§4.6).
func ComputeDriftReport(columns []string, trainingSamples, scoringSamples map[string][]float64, trainingMarginals map[string]Marginal) DriftReport {
	report := DriftReport{Features: make([]FeatureDrift, 0, len(columns))}
	auditor := New()

	for _, col := range columns {
		train := trainingSamples[col]
		score := scoringSamples[col]
		marginal := trainingMarginals[col]

		psi := auditor.PSI(train, score, 10)
		ks := KolmogorovSmirnovStatistic(train, score)
		p := KolmogorovSmirnovPValue(ks, len(train), len(score))

		scoringMean, scoringStdDev, scoringP95 := descriptiveStats(score)

		var shiftSigma float64
		if marginal.StdDev > 0 {
			shiftSigma = math.Abs(scoringMean-marginal.Mean) / marginal.StdDev
		}

		flagged := p < taxonomy.KSPValueThreshold || shiftSigma > taxonomy.MeanShiftSigmaThreshold
		if flagged {
			report.FlaggedCount++
		}

		report.Features = append(report.Features, FeatureDrift{
			Feature:        col,
			PSI:            psi,
			KSStatistic:    ks,
			KSPValue:       p,
			MeanShiftSigma: shiftSigma,
			Flagged:        flagged,
			ScoringMean:    scoringMean,
			ScoringStdDev:  scoringStdDev,
			ScoringP95:     scoringP95,
		})
	}

	if len(columns) > 0 && float64(report.FlaggedCount)/float64(len(columns)) > taxonomy.GlobalDriftFractionFlag {
		report.GlobalAlert = true
	}
	return report
}

// IsOutOfDomain flags a single applicant's row as out-of-domain when any
// one feature exceeds OODSigmaThreshold standard deviations from the
// training marginal (§4.6: "flag individual applicants as out-of-domain
// when any single feature exceeds 3sigma").
func IsOutOfDomain(row []float64, columns []string, trainingMarginals map[string]Marginal) bool {
	for i, val := range row {
		if i >= len(columns) {
			break
		}
		m, ok := trainingMarginals[columns[i]]
		if !ok || m.StdDev == 0 {
			continue
		}
		if math.Abs(val-m.Mean)/m.StdDev > taxonomy.OODSigmaThreshold {
			return true
		}
	}
	return false
}

// descriptiveStats summarizes a scoring-time feature column for the drift
// report (§4.6's per-feature drift entry carries the scoring distribution's
// own mean/stddev/p95 alongside the drift statistics, for a human reviewing
// the report without re-deriving them).
func descriptiveStats(values []float64) (mean, stdDev, p95 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	data := stats.Float64Data(values)
	mean, _ = data.Mean()
	stdDev, _ = data.StandardDeviationPopulation()
	p95, _ = data.Percentile(95)
	return mean, stdDev, p95
}
