package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWilsonLowerBound_MatchesClosedFormForKnownInput(t *testing.T) {
	a := New()
	// 154/154 successes at 95% confidence -> ~0.976, the exact worked
	// example used to validate the Wilson interval implementation.
	lb := a.WilsonLowerBound(154, 154, 0.95)
	assert.InDelta(t, 0.976, lb, 0.001)
}

func TestWilsonLowerBound_ZeroTrialsIsZero(t *testing.T) {
	a := New()
	assert.Equal(t, 0.0, a.WilsonLowerBound(0, 0, 0.95))
}

func TestWilsonLowerBound_LowerThanPointEstimate(t *testing.T) {
	a := New()
	lb := a.WilsonLowerBound(90, 100, 0.95)
	assert.Less(t, lb, 0.90)
}

func TestRecall_NoActualPositivesIsVacuouslyOne(t *testing.T) {
	assert.Equal(t, 1.0, Recall(0, 0))
}

func TestRecall_PartialRecall(t *testing.T) {
	assert.InDelta(t, 0.5, Recall(5, 10), 1e-9)
}
