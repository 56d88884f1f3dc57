package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeBuilder_SplitsOnThresholdThatReducesSSE(t *testing.T) {
	X := [][]float64{{0}, {1}, {10}, {11}}
	residual := []float64{0, 0, 10, 10}

	builder := &treeBuilder{
		maxDepth:    3,
		minLeafSize: 1,
		leafFn: func(idx []int) float64 {
			return mean(residual, idx)
		},
	}

	root := builder.build(X, residual, allIndices(len(X)), 0)
	require.False(t, root.IsLeaf)
	assert.Equal(t, 0, root.FeatureIndex)

	assert.InDelta(t, 0.0, root.predict([]float64{0}), 1e-9)
	assert.InDelta(t, 10.0, root.predict([]float64{10}), 1e-9)
}

func TestTreeBuilder_DepthCutoffProducesLeaf(t *testing.T) {
	X := [][]float64{{0}, {1}}
	residual := []float64{5, 7}

	builder := &treeBuilder{
		maxDepth:    0,
		minLeafSize: 1,
		leafFn: func(idx []int) float64 {
			return mean(residual, idx)
		},
	}

	root := builder.build(X, residual, allIndices(len(X)), 0)
	assert.True(t, root.IsLeaf)
	assert.InDelta(t, 6.0, root.Value, 1e-9)
}

func TestTreeBuilder_MinLeafSizePreventsDegenerateSplit(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}}
	residual := []float64{0, 1, 2}

	builder := &treeBuilder{
		maxDepth:    5,
		minLeafSize: 2,
		leafFn: func(idx []int) float64 {
			return mean(residual, idx)
		},
	}

	root := builder.build(X, residual, allIndices(len(X)), 0)
	assert.True(t, root.IsLeaf, "3 rows with minLeafSize=2 cannot split into two non-trivial children")
}

func TestIsNaNOrInf(t *testing.T) {
	assert.True(t, isNaNOrInf(math.NaN()))
	assert.True(t, isNaNOrInf(math.Inf(1)))
	assert.False(t, isNaNOrInf(1.5))
}
