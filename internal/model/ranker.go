package model

import (
	"fmt"

	"github.com/admissions-triage/core/internal/taxonomy"
)

// qualityRanker is stage 2 (§4.5): a quantile-regression booster trained
// only on rows that pass the gate (score > threshold), predicting a
// systematically conservative lower quantile of the true score.
type qualityRanker struct {
	booster *gradientBooster
	alpha   float64
}

type rankerConfig struct {
	estimators   int
	depth        int
	learningRate float64
}

// fitQualityRanker trains the ranker, sweeping alpha over
// taxonomy.QuantileAlphaSweep and selecting the value minimizing validation
// contamination (§4.5 Stage 2). If the passed-gate training pool falls
// below taxonomy.MinRankerTrainingRows, a fallback expansion to
// score >= threshold - taxonomy.ExpandedTrainingDelta is applied before
// failing fatally.
func fitQualityRanker(cfg rankerConfig, X [][]float64, scores []float64, threshold int) (*qualityRanker, error) {
	trainX, trainY := selectAboveThreshold(X, scores, threshold)
	if len(trainX) < taxonomy.MinRankerTrainingRows {
		// scores are integers, so "> threshold-delta-1" is ">= threshold-delta".
		trainX, trainY = selectAboveThreshold(X, scores, threshold-taxonomy.ExpandedTrainingDelta-1)
	}
	if len(trainX) < taxonomy.MinRankerTrainingRows {
		return nil, fmt.Errorf("insufficient positive class after gating threshold (%d rows, need %d); retraining without two-stage recommended",
			len(trainX), taxonomy.MinRankerTrainingRows)
	}

	valCut := int(float64(len(trainX)) * 0.8)
	fitX, fitY := trainX[:valCut], trainY[:valCut]
	valX, valY := trainX[valCut:], trainY[valCut:]

	var best *qualityRanker
	bestContamination := 2.0

	for _, alpha := range taxonomy.QuantileAlphaSweep {
		boosterCfg := boosterConfig{
			estimators:   cfg.estimators,
			depth:        cfg.depth,
			learningRate: cfg.learningRate,
			minLeafSize:  5,
			patience:     15,
		}
		booster := newGradientBooster(boosterCfg, pinballLoss{alpha: alpha})
		if err := booster.fit(fitX, fitY, valX, valY); err != nil {
			return nil, fmt.Errorf("fitting ranker booster (alpha=%.2f): %w", alpha, err)
		}

		contamination := rankerContamination(valY, threshold)
		if contamination < bestContamination {
			bestContamination = contamination
			best = &qualityRanker{booster: booster, alpha: alpha}
		}
		if contamination <= taxonomy.ContaminationFallbackPct {
			break
		}
	}

	if best == nil {
		return nil, fmt.Errorf("ranker alpha sweep produced no usable model")
	}
	return best, nil
}

func selectAboveThreshold(X [][]float64, scores []float64, threshold int) ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i, s := range scores {
		if s > float64(threshold) {
			x = append(x, X[i])
			y = append(y, s)
		}
	}
	return x, y
}

// rankerContamination is the fraction of the ranker's training/validation
// pool whose true score is at or below the gate threshold. It does not
// decide whether the expanded-training fallback runs; fitQualityRanker
// takes that fallback on row count alone.
func rankerContamination(y []float64, threshold int) float64 {
	if len(y) == 0 {
		return 0
	}
	contaminated := 0
	for _, v := range y {
		if v <= float64(threshold) {
			contaminated++
		}
	}
	return float64(contaminated) / float64(len(y))
}

func (r *qualityRanker) predict(x []float64) float64 {
	return r.booster.predict(x)
}
