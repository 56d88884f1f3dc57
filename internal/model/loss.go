package model

import (
	"math"
	"sort"
)

// lossFunction drives one gradient-boosting objective: it supplies the
// additive model's starting point, the pseudo-residual each round's tree is
// fit against, and the loss-specific leaf value for a set of row indices
// (a one-step Newton correction for log-loss, a weighted quantile for
// pinball loss) — the two corrections that separate a real GBM from a
// bagged ensemble of plain regression trees.
type lossFunction interface {
	init(y []float64) float64
	residual(y, f []float64) []float64
	leafValue(y, f []float64, idx []int) float64
	transform(f float64) float64
}

// logLoss is the stage-1 safety gate's objective: binary cross-entropy on
// is_low, with sigmoid-scaled predictions (§4.5 Stage 1). posWeight scales
// the positive (is_low) class' contribution to both the pseudo-residual and
// the Newton leaf value, implementing scale_pos_weight without needing a
// general per-row sample-weight plumbing through the tree builder.
type logLoss struct {
	posWeight float64
}

func (l logLoss) weight(y float64) float64 {
	if y == 1 && l.posWeight > 0 {
		return l.posWeight
	}
	return 1
}

func (l logLoss) init(y []float64) float64 {
	p := clampProb(mean(y, allIndices(len(y))))
	return math.Log(p / (1 - p))
}

func (l logLoss) residual(y, f []float64) []float64 {
	r := make([]float64, len(y))
	for i := range y {
		p := sigmoid(f[i])
		r[i] = l.weight(y[i]) * (y[i] - p)
	}
	return r
}

func (l logLoss) leafValue(y, f []float64, idx []int) float64 {
	var num, den float64
	for _, i := range idx {
		p := sigmoid(f[i])
		w := l.weight(y[i])
		num += w * (y[i] - p)
		den += w * p * (1 - p)
	}
	if den < 1e-6 {
		return 0
	}
	return num / den
}

func (logLoss) transform(f float64) float64 { return sigmoid(f) }

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func clampProb(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}

// pinballLoss is the stage-2 quality ranker's objective: quantile regression
// at a configurable level alpha (§4.5 Stage 2, 0.25 by default, swept over
// taxonomy.QuantileAlphaSweep).
type pinballLoss struct {
	alpha float64
}

func (l pinballLoss) init(y []float64) float64 {
	return weightedQuantile(y, allIndices(len(y)), l.alpha)
}

func (l pinballLoss) residual(y, f []float64) []float64 {
	r := make([]float64, len(y))
	for i := range y {
		if y[i] >= f[i] {
			r[i] = l.alpha
		} else {
			r[i] = l.alpha - 1
		}
	}
	return r
}

func (l pinballLoss) leafValue(y, f []float64, idx []int) float64 {
	return weightedQuantile(y, idx, l.alpha)
}

func (pinballLoss) transform(f float64) float64 { return f }

// weightedQuantile returns the alpha-quantile of y[idx], the leaf value that
// minimizes pinball loss exactly for a fixed leaf membership.
func weightedQuantile(y []float64, idx []int, alpha float64) float64 {
	if len(idx) == 0 {
		return 0
	}
	values := make([]float64, len(idx))
	for i, j := range idx {
		values[i] = y[j]
	}
	sort.Float64s(values)

	pos := alpha * float64(len(values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return values[lo]
	}
	frac := pos - float64(lo)
	return values[lo]*(1-frac) + values[hi]*frac
}
