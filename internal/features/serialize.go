package features

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// pipelineArtifact is the plain structured-text serialization format
// (§4.4 "Serialization": "plain structured text (keys/lists/floats), not
// an opaque object blob").
type pipelineArtifact struct {
	Columns           []string            `json:"feature_columns"`
	MCATMedian        float64             `json:"mcat_median"`
	RubricMedians     map[string]float64  `json:"rubric_medians"`
	RubricScaleMax    int                 `json:"rubric_scale_max"`
	TrainingMarginals map[string]Marginal `json:"training_marginals"`
	ContentHash       string              `json:"content_hash"`
}

// Save writes the fitted pipeline's statistics as structured JSON
// (fitted medians, feature_columns_ ordering, rubric scale seen at fit,
// and per-feature training marginals for drift checks).
func (p *Pipeline) Save(path string) error {
	if !p.fitted {
		return fmt.Errorf("cannot save an unfitted feature pipeline")
	}

	artifact := pipelineArtifact{
		Columns:           p.columns,
		MCATMedian:        p.mcatMedian,
		RubricMedians:     p.rubricMedians,
		RubricScaleMax:    p.rubricScaleMax,
		TrainingMarginals: p.trainingMarginals,
		ContentHash:       p.contentHash,
	}

	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling feature pipeline: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing feature pipeline to %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved pipeline. The loaded pipeline is
// immutable: calling Fit on it again is permitted only to retrain from
// scratch, never to mutate in place mid-use.
func (p *Pipeline) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading feature pipeline from %s: %w", path, err)
	}

	var artifact pipelineArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return fmt.Errorf("parsing feature pipeline from %s: %w", path, err)
	}

	p.columns = artifact.Columns
	p.mcatMedian = artifact.MCATMedian
	p.rubricMedians = artifact.RubricMedians
	p.rubricScaleMax = artifact.RubricScaleMax
	p.trainingMarginals = artifact.TrainingMarginals
	p.contentHash = artifact.ContentHash
	p.fitted = true

	recomputed := computeContentHash(p)
	if recomputed != p.contentHash {
		return fmt.Errorf("feature pipeline content hash mismatch: artifact may be corrupt or hand-edited")
	}

	return nil
}

// computeContentHash hashes the statistics that define this pipeline's
// transform behavior, so a corrupted or tampered artifact is caught at
// load time rather than silently producing wrong features.
func computeContentHash(p *Pipeline) string {
	h := sha256.New()
	fmt.Fprintf(h, "columns=%v\n", p.columns)
	fmt.Fprintf(h, "mcat_median=%.6f\n", p.mcatMedian)
	fmt.Fprintf(h, "rubric_scale_max=%d\n", p.rubricScaleMax)
	for _, col := range canonicalRubricColumns() {
		fmt.Fprintf(h, "rubric_median[%s]=%.6f\n", col, p.rubricMedians[col])
	}
	return hex.EncodeToString(h.Sum(nil))
}
