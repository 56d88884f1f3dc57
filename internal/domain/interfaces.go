package domain

import "context"

// ProgressCallback reports monotonic progress through a multi-stage
// operation. Percentages must be non-decreasing across the entire run,
// including nested stages (§4.2).
type ProgressCallback func(stage string, pctComplete float64)

// DataPreparer implements C2: multi-file ingestion, normalization, and
// join into a unified, one-row-per-applicant frame.
type DataPreparer interface {
	PrepareDataset(ctx context.Context, years []int, progress ProgressCallback) ([]Applicant, *Report, error)
	PrepareFromFiles(ctx context.Context, files map[string]string, progress ProgressCallback) ([]Applicant, *Report, error)
}

// LLMClient is the injected adapter contract of §6: a single chat
// completion call. Concrete adapters own rate limiting and transport;
// the rubric scorer owns retries, schema validation, and resumability.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	ModelVersion() string
}

// RubricScorer implements C3: atomic per-dimension LLM scoring with
// resumable caching and reproducibility pinning.
type RubricScorer interface {
	ScoreBatch(ctx context.Context, applicants []Applicant, resume bool) ([]RubricScore, *Report, error)
}

// FeaturePipeline implements C4: leakage-safe fit/transform over the
// unified frame plus the rubric cache, producing the fixed-order feature
// matrix consumed by the two-stage model.
type FeaturePipeline interface {
	Fit(applicants []Applicant, rubrics []RubricScore) error
	Transform(applicants []Applicant, rubrics []RubricScore) ([]FeatureVector, error)
	FitTransform(applicants []Applicant, rubrics []RubricScore) ([]FeatureVector, error)
	Columns() []string
	Save(path string) error
	Load(path string) error
}

// TwoStageModel implements C5: the calibrated safety gate, the quantile
// ranker, and their combination into a top-K triage.
type TwoStageModel interface {
	Train(ctx context.Context, train []FeatureVector, scores []int) error
	Triage(features []FeatureVector, k int) (*TriageBatch, error)
	Save(path string) error
	Load(path string) error
}

// TriageBatch is the result of combining the gate and ranker over a
// scoring pool (§4.5 step 5).
type TriageBatch struct {
	SelectedIndices   []int
	PredictedScores   []float64
	PLow              []float64
	NPassedGate       int
	GateRejectionRate float64
}

// Auditor implements C6: contamination, calibration, drift, and fairness
// diagnostics over a scored cohort.
type Auditor interface {
	Contamination(selected []int, trueScores []int, threshold int) float64
	WilsonLowerBound(successes, trials int, confidence float64) float64
	PSI(training, scoring []float64, buckets int) float64
}

// ConfigManager mirrors the teacher's ConfigManager contract, trimmed to
// what the triage pipeline actually needs.
type ConfigManager interface {
	GetConfig() *Config
	Validate() error
}
