// Package domain contains the core entities of the admissions triage
// pipeline: the applicant record, the LLM rubric score record, the fitted
// feature vector, and the model's prediction output.
//
// These types are shared by every stage from data preparation (C2) through
// evaluation and audit (C6); none of them know about HTTP, MCP, or SQL —
// those concerns live in their own packages and depend on domain, never the
// reverse.
package domain

import "fmt"

// Tier is one of four ordinal tranches derived from the predicted score by
// fixed, left-closed boundaries (§4.5). Tiers are monotone non-decreasing in
// predicted score.
type Tier int

const (
	TierNotCompetitive Tier = 0
	TierReview         Tier = 1
	TierRecommended    Tier = 2
	TierTopCandidate   Tier = 3
)

// tierBoundaries are the left-closed lower bounds of each tier, in score
// points on the 0-25 scale. The upper bound of TierTopCandidate is 25,
// inclusive.
var tierBoundaries = [...]float64{0, 6.25, 12.5, 18.75}

// TierForScore maps a predicted score to its tier using the fixed boundary
// table. Boundaries are left-closed: a score of exactly 12.5 lands in
// TierRecommended, never TierReview.
func TierForScore(score float64) Tier {
	tier := TierNotCompetitive
	for t := len(tierBoundaries) - 1; t >= 0; t-- {
		if score >= tierBoundaries[t] {
			tier = Tier(t)
			break
		}
	}
	return tier
}

// String renders the tier with its human label.
func (t Tier) String() string {
	switch t {
	case TierNotCompetitive:
		return "Tier 0: Not Competitive"
	case TierReview:
		return "Tier 1: Review"
	case TierRecommended:
		return "Tier 2: Recommended"
	case TierTopCandidate:
		return "Tier 3: Top Candidate"
	default:
		return fmt.Sprintf("Tier %d: Unknown", int(t))
	}
}

// ConfidenceLevel annotates a prediction's trustworthiness, driven by the
// drift audit (§4.6): an applicant more than 3σ from the training marginal
// on any single feature is flagged "low".
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// RubricFormatVersion discriminates the two coexisting rubric JSON shapes.
// Code must never branch on version anywhere but the canonical-name mapping
// at load time (§9 design note).
type RubricFormatVersion string

const (
	RubricV1 RubricFormatVersion = "v1"
	RubricV2 RubricFormatVersion = "v2"
)

// ScaleMax returns the valid upper bound for a raw dimension score under
// this format version.
func (v RubricFormatVersion) ScaleMax() int {
	if v == RubricV1 {
		return 5
	}
	return 4
}

// GateState is the per-applicant state machine driven by the two-stage
// model (§4.5): new -> rejected_by_gate (terminal), or
// new -> passed_gate -> ranked -> {selected, not_selected} (terminal).
type GateState string

const (
	StateNew            GateState = "new"
	StateRejectedByGate  GateState = "rejected_by_gate"
	StatePassedGate      GateState = "passed_gate"
	StateRanked          GateState = "ranked"
	StateSelected        GateState = "selected"
	StateNotSelected     GateState = "not_selected"
)

// IsTerminal reports whether this state is a leaf of the state machine.
func (s GateState) IsTerminal() bool {
	switch s {
	case StateRejectedByGate, StateSelected, StateNotSelected:
		return true
	default:
		return false
	}
}
