package rubric

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/admissions-triage/core/internal/domain"
)

// promptSetHash pins the prompt set, model version, temperature, seed, and
// scale into a single hash recorded alongside every score (§4.3
// "Reproducibility"). Dimensions are sorted before hashing so the hash is
// independent of map iteration order.
func promptSetHash(modelVersion string, temperature float64, seed int64, scaleMax int) (string, error) {
	dims := append([]string{}, domain.AllRubricDimensions()...)
	sort.Strings(dims)

	h := sha256.New()
	fmt.Fprintf(h, "model=%s;temperature=%.4f;seed=%d;scale_max=%d\n", modelVersion, temperature, seed, scaleMax)
	for _, dim := range dims {
		prompt, err := systemPrompt(dim, scaleMax)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s:%s\n", dim, prompt)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CanaryResult compares freshly scored canary applicants against a stored
// baseline (§4.3 "canary step").
type CanaryResult struct {
	MeanAbsoluteDeviation float64
	Exceeded              bool
}

// CheckCanary computes the mean absolute deviation per dimension between
// a freshly scored canary batch and its stored baseline, raising an alert
// (via the Exceeded flag) when it exceeds bound.
func CheckCanary(fresh, baseline []domain.RubricScore, bound float64) (*CanaryResult, error) {
	baselineByID := make(map[int64]domain.RubricScore, len(baseline))
	for _, b := range baseline {
		baselineByID[b.AMCASID] = b
	}

	var total float64
	var count int
	for _, f := range fresh {
		base, ok := baselineByID[f.AMCASID]
		if !ok {
			continue
		}
		for dim, score := range f.Scores {
			if score == nil {
				continue
			}
			baseScore, ok := base.Scores[dim]
			if !ok || baseScore == nil {
				continue
			}
			diff := *score - *baseScore
			if diff < 0 {
				diff = -diff
			}
			total += float64(diff)
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("canary check found no comparable dimensions between fresh and baseline")
	}

	mad := total / float64(count)
	return &CanaryResult{MeanAbsoluteDeviation: mad, Exceeded: mad > bound}, nil
}
