package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContamination_FractionAtOrBelowThreshold(t *testing.T) {
	a := New()
	selected := []int{0, 1, 2, 3}
	trueScores := []int{20, 10, 15, 25}
	c := a.Contamination(selected, trueScores, 15)
	assert.InDelta(t, 0.5, c, 1e-9) // indices 1 and 2 are <= 15
}

func TestContamination_EmptySelectionIsZero(t *testing.T) {
	a := New()
	assert.Equal(t, 0.0, a.Contamination(nil, []int{1, 2}, 10))
}

func TestContamination_IgnoresOutOfRangeIndices(t *testing.T) {
	a := New()
	// index 99 is out of range and skipped; only index 0 (score 5 <= 10)
	// contributes to the numerator, but the denominator is still len(selected).
	c := a.Contamination([]int{0, 99}, []int{5}, 10)
	assert.InDelta(t, 0.5, c, 1e-9)
}
