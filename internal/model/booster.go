package model

import (
	"fmt"
	"math"
)

// boosterConfig holds the shared gradient-boosting hyperparameters for both
// the gate and the ranker (§4.5).
type boosterConfig struct {
	estimators   int
	depth        int
	learningRate float64
	minLeafSize  int
	patience     int // early-stopping rounds with no validation improvement
}

// gradientBooster is an additive ensemble of shallow regression trees
// trained against a pluggable lossFunction's pseudo-residual. Fully
// deterministic: no row or column subsampling, so "seed-fixed" holds
// trivially — there is no randomness to seed.
type gradientBooster struct {
	cfg   boosterConfig
	loss  lossFunction
	trees []*treeNode
	init  float64
}

func newGradientBooster(cfg boosterConfig, loss lossFunction) *gradientBooster {
	return &gradientBooster{cfg: cfg, loss: loss}
}

// fit trains the ensemble on (X, y), using (XVal, yVal) only for early
// stopping — never for split selection (§4.5: calibration split used only
// for early stopping).
func (g *gradientBooster) fit(X [][]float64, y []float64, XVal [][]float64, yVal []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("gradient booster: empty training set")
	}

	g.init = g.loss.init(y)
	f := make([]float64, len(y))
	for i := range f {
		f[i] = g.init
	}

	var fVal []float64
	if len(XVal) > 0 {
		fVal = make([]float64, len(yVal))
		for i := range fVal {
			fVal[i] = g.init
		}
	}

	bestValLoss := math.Inf(1)
	roundsSinceImprovement := 0

	for round := 0; round < g.cfg.estimators; round++ {
		residual := g.loss.residual(y, f)

		builder := &treeBuilder{
			maxDepth:    g.cfg.depth,
			minLeafSize: g.cfg.minLeafSize,
			leafFn: func(idx []int) float64 {
				return g.loss.leafValue(y, f, idx)
			},
		}
		tree := builder.build(X, residual, allIndices(len(y)), 0)
		g.trees = append(g.trees, tree)

		for i := range f {
			f[i] += g.cfg.learningRate * tree.predict(X[i])
		}

		if fVal == nil {
			continue
		}
		for i := range fVal {
			fVal[i] += g.cfg.learningRate * tree.predict(XVal[i])
		}
		valLoss := g.validationLoss(yVal, fVal)
		if valLoss < bestValLoss-1e-9 {
			bestValLoss = valLoss
			roundsSinceImprovement = 0
		} else {
			roundsSinceImprovement++
			if g.cfg.patience > 0 && roundsSinceImprovement >= g.cfg.patience {
				break
			}
		}
	}

	return nil
}

func (g *gradientBooster) validationLoss(y, f []float64) float64 {
	switch g.loss.(type) {
	case logLoss:
		var sum float64
		for i := range y {
			p := clampProb(sigmoid(f[i]))
			if y[i] == 1 {
				sum -= math.Log(p)
			} else {
				sum -= math.Log(1 - p)
			}
		}
		return sum / float64(len(y))
	case pinballLoss:
		pl := g.loss.(pinballLoss)
		var sum float64
		for i := range y {
			d := y[i] - f[i]
			if d >= 0 {
				sum += pl.alpha * d
			} else {
				sum += (pl.alpha - 1) * d
			}
		}
		return sum / float64(len(y))
	default:
		return 0
	}
}

// predictRaw returns the pre-transform additive score F(x).
func (g *gradientBooster) predictRaw(x []float64) float64 {
	f := g.init
	for _, t := range g.trees {
		f += g.cfg.learningRate * t.predict(x)
	}
	return f
}

// predict returns the loss's transformed prediction (sigmoid probability for
// the gate, raw quantile value for the ranker).
func (g *gradientBooster) predict(x []float64) float64 {
	return g.loss.transform(g.predictRaw(x))
}
