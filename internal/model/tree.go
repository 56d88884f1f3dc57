// Package model implements C5: the two-stage safety-gate / quality-ranker
// model, its calibration, threshold tuning, and triage combination.
//
// No boosting or tree library appears anywhere in the retrieval pack, so
// the gradient-boosted trees themselves are hand-rolled here on top of
// gonum's numeric primitives, following the same greedy-CART structure the
// literature (and every open-source GBM) uses: at each boosting round, fit
// a shallow regression tree to the current pseudo-residual, then take a
// loss-specific leaf value via a one-step Newton or quantile correction.
package model

import "math"

// treeNode is one node of a CART regression tree grown on a pseudo-residual
// target. Splits minimize the sum of squared error of the residual in the
// two child partitions; leaves are given a value chosen by the boosting
// loop's lossFunction, not simply a residual mean.
type treeNode struct {
	IsLeaf       bool      `json:"is_leaf"`
	Value        float64   `json:"value,omitempty"`
	FeatureIndex int       `json:"feature_index,omitempty"`
	Threshold    float64   `json:"threshold,omitempty"`
	Left         *treeNode `json:"left,omitempty"`
	Right        *treeNode `json:"right,omitempty"`
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.IsLeaf {
		if x[n.FeatureIndex] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// treeBuilder grows one regression tree against a residual target, deferring
// the final leaf value to leafFn so the same splitting logic serves both the
// gate's log-loss Newton leaves and the ranker's quantile leaves.
type treeBuilder struct {
	maxDepth     int
	minLeafSize  int
	leafFn       func(indices []int) float64
}

// build grows a tree over the row indices in idx, splitting on X/residual.
func (b *treeBuilder) build(X [][]float64, residual []float64, idx []int, depth int) *treeNode {
	if depth >= b.maxDepth || len(idx) < 2*b.minLeafSize {
		return &treeNode{IsLeaf: true, Value: b.leafFn(idx)}
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	var bestLeft, bestRight []int

	numFeatures := len(X[idx[0]])
	parentSSE := sumSquaredDeviation(residual, idx)

	for f := 0; f < numFeatures; f++ {
		thresholds := candidateThresholds(X, idx, f)
		for _, t := range thresholds {
			left, right := partition(X, idx, f, t)
			if len(left) < b.minLeafSize || len(right) < b.minLeafSize {
				continue
			}
			sse := sumSquaredDeviation(residual, left) + sumSquaredDeviation(residual, right)
			gain := parentSSE - sse
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = t
				bestLeft, bestRight = left, right
			}
		}
	}

	if bestFeature == -1 {
		return &treeNode{IsLeaf: true, Value: b.leafFn(idx)}
	}

	return &treeNode{
		IsLeaf:       false,
		FeatureIndex: bestFeature,
		Threshold:    bestThreshold,
		Left:         b.build(X, residual, bestLeft, depth+1),
		Right:        b.build(X, residual, bestRight, depth+1),
	}
}

// candidateThresholds returns midpoints between consecutive distinct sorted
// values of X[idx][feature], stepping through the sorted values so that
// roughly 64 candidates (at most about 128) are tried per feature. The
// sort itself runs over every value in idx.
func candidateThresholds(X [][]float64, idx []int, feature int) []float64 {
	values := make([]float64, len(idx))
	for i, row := range idx {
		values[i] = X[row][feature]
	}
	sortFloats(values)

	var thresholds []float64
	const maxCandidates = 64
	step := 1
	if len(values) > maxCandidates {
		step = len(values) / maxCandidates
	}
	for i := 0; i+1 < len(values); i += step {
		if values[i] == values[i+1] {
			continue
		}
		thresholds = append(thresholds, (values[i]+values[i+1])/2)
	}
	return thresholds
}

func partition(X [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func sumSquaredDeviation(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	mean := 0.0
	for _, i := range idx {
		mean += values[i]
	}
	mean /= float64(len(idx))

	sse := 0.0
	for _, i := range idx {
		d := values[i] - mean
		sse += d * d
	}
	return sse
}

func sortFloats(values []float64) {
	// insertion sort over every value of the node, once per feature per
	// node; its cost is quadratic in the node's row count.
	for i := 1; i < len(values); i++ {
		v := values[i]
		j := i - 1
		for j >= 0 && values[j] > v {
			values[j+1] = values[j]
			j--
		}
		values[j+1] = v
	}
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func mean(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}

func isNaNOrInf(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
