package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// TierDistribution is the count of applicants landing in each predicted
// tier for one run.
type TierDistribution struct {
	NotCompetitive int `json:"not_competitive"`
	Review         int `json:"review"`
	Recommended    int `json:"recommended"`
	TopCandidate   int `json:"top_candidate"`
}

// MetricCI bundles a point estimate with its bootstrap 95% CI (§4.6).
type MetricCI struct {
	Estimate float64 `json:"estimate"`
	CILower  float64 `json:"ci_lower"`
	CIUpper  float64 `json:"ci_upper"`
}

// RunReport is the full set of §4.6 report artifacts for a single training
// or scoring run, written to the outputs directory as one JSON file per
// concern (§4.6: "A run writes: overall metrics, per-tier distribution,
// bootstrap-CI metric table, fairness report, drift report, and (when test
// labels exist) contamination figures").
type RunReport struct {
	RunID             string                     `json:"run_id"`
	GeneratedAt       time.Time                  `json:"generated_at"`
	TierDistribution  TierDistribution           `json:"tier_distribution"`
	GateRecall        MetricCI                   `json:"gate_recall"`
	NDCG              MetricCI                   `json:"ndcg"`
	Spearman          MetricCI                   `json:"spearman"`
	ECE               float64                    `json:"ece"`
	Contamination     *float64                   `json:"contamination,omitempty"`
	DriftReport       DriftReport                `json:"drift_report"`
	FairnessReports   []FairnessReport           `json:"fairness_reports"`
	SESAblation       *SESAblation               `json:"ses_ablation,omitempty"`
}

// SESAblation holds two fairness reports computed from the same trained
// model's gate outcomes: WithSES is the report grouped by the ses_value
// flag and WithoutSES the report grouped by the first_generation flag. No
// model is refit with the SES-value, first-generation, or disadvantaged
// columns removed, so this is not a with/without model comparison.
type SESAblation struct {
	WithSES    FairnessReport `json:"with_ses"`
	WithoutSES FairnessReport `json:"without_ses"`
}

// Persist writes the run report as a single indented JSON document plus,
// for convenience, the fairness and drift sections split into their own
// files, mirroring the plural "report artifacts" the run is required to
// produce (§4.6). The output directory is created if it does not exist.
func (r RunReport) Persist(outputDir string, log *logrus.Logger) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating audit output directory %s: %w", outputDir, err)
	}

	if err := writeJSON(filepath.Join(outputDir, r.RunID+"_report.json"), r); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, r.RunID+"_drift.json"), r.DriftReport); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, r.RunID+"_fairness.json"), r.FairnessReports); err != nil {
		return err
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"run_id":     r.RunID,
			"output_dir": outputDir,
		}).Info("persisted audit report artifacts")
	}
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
