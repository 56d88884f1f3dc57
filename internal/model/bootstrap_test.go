package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBootstrapCI_ConstantStatisticCollapsesToAPoint(t *testing.T) {
	lower, upper := bootstrapCI(50, 200, 7, func(idx []int) float64 { return 3.0 })
	assert.InDelta(t, 3.0, lower, 1e-9)
	assert.InDelta(t, 3.0, upper, 1e-9)
}

func TestBootstrapCI_EmptyPopulationReturnsZero(t *testing.T) {
	lower, upper := bootstrapCI(0, 100, 7, func(idx []int) float64 { return 1 })
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 0.0, upper)
}

func TestBootstrapCI_IsDeterministicForFixedSeed(t *testing.T) {
	statistic := func(idx []int) float64 {
		var sum float64
		for _, i := range idx {
			sum += float64(i)
		}
		return sum / float64(len(idx))
	}
	l1, u1 := bootstrapCI(30, 500, 42, statistic)
	l2, u2 := bootstrapCI(30, 500, 42, statistic)
	assert.Equal(t, l1, l2)
	assert.Equal(t, u1, u2)
}
