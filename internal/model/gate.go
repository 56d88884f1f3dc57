package model

import (
	"fmt"

	"github.com/admissions-triage/core/internal/taxonomy"
)

// safetyGate is stage 1 of the two-stage model (§4.5): a calibrated binary
// classifier predicting is_low = score <= threshold, with the classification
// threshold itself tuned against the asymmetric cost matrix rather than
// fixed at the conventional 0.5.
type safetyGate struct {
	booster     *gradientBooster
	calibrator  *plattCalibrator
	threshold   float64
	thresholdLo float64
	thresholdHi float64
}

type gateConfig struct {
	estimators     int
	depth          int
	learningRate   float64
	recallTarget   float64
	bootstrapSeed  int64
	bootstrapCount int
}

// fitSafetyGate trains the gate end to end: booster on train-core (early
// stopping on calibration), Platt calibrator on calibration (prefit), and a
// cost-minimizing threshold swept on the held-out threshold split (§4.5
// Stage 1). isLow is the binary label for every row in X.
func fitSafetyGate(cfg gateConfig, X [][]float64, isLow []bool) (*safetyGate, error) {
	y := make([]float64, len(isLow))
	nPos := 0
	for i, v := range isLow {
		if v {
			y[i] = 1
			nPos++
		}
	}
	nNeg := len(isLow) - nPos
	scalePosWeight := 1.0
	if nPos > 0 {
		scalePosWeight = (float64(nNeg) / float64(nPos)) * taxonomy.ScalePosWeightMult
	}

	trainIdx, calIdx, threshIdx := stratifiedSplit(isLow)
	if len(trainIdx) == 0 || len(calIdx) == 0 || len(threshIdx) == 0 {
		return nil, fmt.Errorf("safety gate: leakage-safe split produced an empty partition (n=%d)", len(isLow))
	}

	boosterCfg := boosterConfig{
		estimators:   cfg.estimators,
		depth:        cfg.depth,
		learningRate: cfg.learningRate,
		minLeafSize:  5,
		patience:     15,
	}
	booster := newGradientBooster(boosterCfg, logLoss{posWeight: scalePosWeight})
	if err := booster.fit(gather(X, trainIdx), gatherFloat(y, trainIdx), gather(X, calIdx), gatherFloat(y, calIdx)); err != nil {
		return nil, fmt.Errorf("fitting gate booster: %w", err)
	}

	calRaw := make([]float64, len(calIdx))
	for i, idx := range calIdx {
		calRaw[i] = booster.predictRaw(X[idx])
	}
	calibrator := &plattCalibrator{}
	if err := calibrator.fit(calRaw, gatherFloat(y, calIdx)); err != nil {
		return nil, fmt.Errorf("fitting platt calibrator: %w", err)
	}

	predictP := func(idx int) float64 {
		return calibrator.calibrate(booster.predictRaw(X[idx]))
	}

	threshold, err := sweepGateThreshold(threshIdx, y, predictP, cfg.recallTarget)
	if err != nil {
		return nil, err
	}

	lo, hi := bootstrapCI(len(threshIdx), cfg.bootstrapCount, cfg.bootstrapSeed, func(sample []int) float64 {
		resampled := make([]int, len(sample))
		for i, s := range sample {
			resampled[i] = threshIdx[s]
		}
		t, err := sweepGateThreshold(resampled, y, predictP, cfg.recallTarget)
		if err != nil {
			return threshold
		}
		return t
	})

	gate := &safetyGate{booster: booster, calibrator: calibrator, threshold: threshold, thresholdLo: lo, thresholdHi: hi}
	if err := gate.checkModeCollapse(threshIdx, y, predictP); err != nil {
		return nil, err
	}
	return gate, nil
}

// sweepGateThreshold sweeps [0.01, 0.50] for the threshold minimizing the
// cost matrix subject to recall_low >= target (§4.5 Stage 1).
func sweepGateThreshold(idx []int, y []float64, predictP func(int) float64, recallTarget float64) (float64, error) {
	const steps = 50
	lo, hi := taxonomy.ThresholdSweepMin, taxonomy.ThresholdSweepMax

	bestCost := negInf()
	bestThreshold := -1.0
	anyFeasible := false

	for s := 0; s <= steps; s++ {
		t := lo + (hi-lo)*float64(s)/float64(steps)

		var tp, fp, fn, tn float64
		for _, i := range idx {
			// "passed = p_low <= gate_threshold" (§4.5 step 2): predicted_low
			// is the complement, p_low > t, the applicants the gate rejects.
			predictedLow := predictP(i) > t
			actualLow := y[i] == 1
			switch {
			case actualLow && predictedLow:
				tp++
			case actualLow && !predictedLow:
				fn++
			case !actualLow && predictedLow:
				fp++
			default:
				tn++
			}
		}

		recall := 1.0
		if tp+fn > 0 {
			recall = tp / (tp + fn)
		}
		if recall < recallTarget {
			continue
		}
		anyFeasible = true

		cost := taxonomy.CostMatrix[0][0]*tp + taxonomy.CostMatrix[0][1]*fn +
			taxonomy.CostMatrix[1][0]*fp + taxonomy.CostMatrix[1][1]*tn

		if cost > bestCost {
			bestCost = cost
			bestThreshold = t
		}
	}

	if !anyFeasible {
		return taxonomy.ThresholdSweepMax, nil
	}
	return bestThreshold, nil
}

// checkModeCollapse fails training when the gate predicts the same class for
// every applicant, the guard named in S8: a gate that always predicts
// is_low=1 "wins" on recall trivially but carries no signal beyond the
// majority-class baseline.
func (g *safetyGate) checkModeCollapse(idx []int, y []float64, predictP func(int) float64) error {
	if isConstantLabel(y, idx) {
		return nil // the split itself is degenerate, not the gate's fault
	}

	allPredictedLow := true
	allPredictedPass := true
	for _, i := range idx {
		if predictP(i) > g.threshold {
			allPredictedPass = false
		} else {
			allPredictedLow = false
		}
	}

	if allPredictedLow || allPredictedPass {
		return fmt.Errorf("%w: gate predicts the same class for every applicant", errModeCollapse)
	}
	return nil
}

func isConstantLabel(y []float64, idx []int) bool {
	if len(idx) == 0 {
		return true
	}
	first := y[idx[0]]
	for _, i := range idx {
		if y[i] != first {
			return false
		}
	}
	return true
}

func negInf() float64 { return -1e18 }

// predict returns the calibrated p_low for one feature row.
func (g *safetyGate) predict(x []float64) float64 {
	return g.calibrator.calibrate(g.booster.predictRaw(x))
}
