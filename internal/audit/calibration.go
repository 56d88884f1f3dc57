package audit

import (
	"math"
	"sort"
)

// ExpectedCalibrationError computes ECE over `bins` equal-mass bins of the
// gate's calibrated probabilities on the threshold split (§4.6: "ECE on the
// threshold split ... using 10 equal-mass bins"). Equal-mass (quantile)
// binning is used rather than equal-width, since equal-width bins on a
// sigmoid-calibrated score concentrate almost all mass in one or two bins
// and make the statistic meaningless on a skewed score distribution.
func ExpectedCalibrationError(probs []float64, labels []float64, bins int) float64 {
	n := len(probs)
	if n == 0 || bins <= 0 {
		return 0
	}

	type row struct {
		p float64
		y float64
	}
	rows := make([]row, n)
	for i := range probs {
		rows[i] = row{p: probs[i], y: labels[i]}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].p < rows[j].p })

	var ece float64
	start := 0
	for b := 0; b < bins; b++ {
		end := (b + 1) * n / bins
		if end <= start {
			continue
		}
		size := end - start

		var sumP, sumY float64
		for _, r := range rows[start:end] {
			sumP += r.p
			sumY += r.y
		}
		avgP := sumP / float64(size)
		avgY := sumY / float64(size)

		ece += (float64(size) / float64(n)) * math.Abs(avgP-avgY)
		start = end
	}
	return ece
}
