package taxonomy

// CostMatrix is the asymmetric cost of the safety gate's threshold
// decision (§4.5): CostMatrix[actual][predicted]. A missed low-scorer
// (actual low, predicted pass) costs 10x a false rejection of a good
// candidate (actual pass, predicted low).
//
//	                predicted_low   predicted_pass
//	actual_low            0              -10
//	actual_pass          -1                1
var CostMatrix = [2][2]float64{
	{0, -10},
	{-1, 1},
}

// QuantileAlphaSweep is the set of quantile-regression alphas tried
// during ranker training; the value minimizing validation contamination
// is selected (§4.5, §9 open question 2).
var QuantileAlphaSweep = []float64{0.10, 0.15, 0.20, 0.25, 0.30}

// DefaultQuantileAlpha is the nominal quantile alpha. fitQualityRanker does
// not read it; the sweep always starts at QuantileAlphaSweep[0].
const DefaultQuantileAlpha = 0.25

// Gate hyperparameter defaults (§4.5 Stage 1), overridable via
// domain.ModelConfig.
const (
	GateDepth          = 2
	GateEstimators     = 200
	ScalePosWeightMult = 2.5

	TrainCoreFraction       = 0.60
	CalibrationFraction     = 0.20
	ThresholdFraction       = 0.20
	ThresholdSweepMin       = 0.01
	ThresholdSweepMax       = 0.50
	DefaultRecallTarget     = 0.95
	BootstrapResamples      = 1000
)

// Ranker hyperparameter defaults (§4.5 Stage 2).
const (
	RankerDepth              = 3
	RankerEstimators         = 200
	RankerLearningRate       = 0.05
	ContaminationFallbackPct = 0.02
	ExpandedTrainingDelta    = 2 // score >= threshold - 2 fallback
	MinRankerTrainingRows    = 400
)

// LowScoreThreshold is the default binary gate cutoff: is_low = score <=
// LowScoreThreshold (§4.5).
const LowScoreThreshold = 15

// TrainingSeed fixes the stratified train-core/calibration/threshold split
// and any other randomized step in C5 training, so two runs over identical
// data produce identical artifacts (§4.5: "seed-fixed").
const TrainingSeed = 42

// Drift detection thresholds (§4.6, §7).
const (
	PSIDriftThreshold       = 0.25
	KSPValueThreshold       = 0.01
	KSPValueWarnThreshold   = 0.05
	MeanShiftSigmaThreshold = 2.0
	OODSigmaThreshold       = 3.0
	GlobalDriftFractionFlag = 0.20
)

// Fairness audit constants (§4.6).
const DisparateImpactTarget = 0.80

// IntersectionalSlices lists the protected-attribute pairs audited beyond
// the univariate breakdown (§4.6).
var IntersectionalSlices = [][2]string{
	{"gender", "first_generation"},
	{"gender", "ses_value"},
}

// ECETarget is the expected-calibration-error acceptance bound (§4.6).
const ECETarget = 0.05

// ECEBins is the number of equal-mass bins used to compute ECE.
const ECEBins = 10

