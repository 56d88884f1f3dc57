package model

import (
	"math/rand"

	"github.com/admissions-triage/core/internal/taxonomy"
)

// stratifiedSplit partitions row indices into train-core / calibration /
// threshold subsets, stratified by the binary label so each subset keeps
// roughly the same is_low rate as the full set (§4.5 Stage 1). The split is
// seeded deterministically so repeated training runs over the same data are
// byte-identical.
func stratifiedSplit(isLow []bool) (trainCore, calibration, threshold []int) {
	var positives, negatives []int
	for i, v := range isLow {
		if v {
			positives = append(positives, i)
		} else {
			negatives = append(negatives, i)
		}
	}

	rng := rand.New(rand.NewSource(taxonomy.TrainingSeed))
	rng.Shuffle(len(positives), func(i, j int) { positives[i], positives[j] = positives[j], positives[i] })
	rng.Shuffle(len(negatives), func(i, j int) { negatives[i], negatives[j] = negatives[j], negatives[i] })

	trainCore = append(trainCore, splitFraction(positives, 0, taxonomy.TrainCoreFraction)...)
	trainCore = append(trainCore, splitFraction(negatives, 0, taxonomy.TrainCoreFraction)...)

	calibration = append(calibration, splitFraction(positives, taxonomy.TrainCoreFraction, taxonomy.TrainCoreFraction+taxonomy.CalibrationFraction)...)
	calibration = append(calibration, splitFraction(negatives, taxonomy.TrainCoreFraction, taxonomy.TrainCoreFraction+taxonomy.CalibrationFraction)...)

	threshold = append(threshold, splitFraction(positives, taxonomy.TrainCoreFraction+taxonomy.CalibrationFraction, 1.0)...)
	threshold = append(threshold, splitFraction(negatives, taxonomy.TrainCoreFraction+taxonomy.CalibrationFraction, 1.0)...)

	return trainCore, calibration, threshold
}

func splitFraction(idx []int, from, to float64) []int {
	n := len(idx)
	start := int(from * float64(n))
	end := int(to * float64(n))
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return idx[start:end]
}

func gather(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func gatherFloat(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
