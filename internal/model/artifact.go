package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// The following *Artifact types are the plain, exported mirror of the
// unexported runtime structs: the single versioned model-bundle file named
// in §6 ("calibrated_gate, ranker, gate_threshold, threshold_bootstrap_ci,
// feature_columns, training_marginals, training_metadata"), plus a
// `.sha256` sidecar integrity tag. Loading any subset without the others is
// a hard error — Load always restores gate, ranker, columns, and marginals
// together from the one bundle.

type boosterArtifact struct {
	Trees        []*treeNode `json:"trees"`
	Init         float64     `json:"init"`
	LearningRate float64     `json:"learning_rate"`
}

type gateArtifact struct {
	Booster     boosterArtifact `json:"booster"`
	PosWeight   float64         `json:"pos_weight"`
	CalibratorA float64         `json:"calibrator_a"`
	CalibratorB float64         `json:"calibrator_b"`
	Threshold   float64         `json:"threshold"`
	ThresholdLo float64         `json:"threshold_ci_lo"`
	ThresholdHi float64         `json:"threshold_ci_hi"`
}

type rankerArtifact struct {
	Booster boosterArtifact `json:"booster"`
	Alpha   float64         `json:"alpha"`
}

// modelArtifact is the full on-disk bundle.
type modelArtifact struct {
	Gate              gateArtifact        `json:"gate"`
	Ranker            rankerArtifact      `json:"ranker"`
	FeatureColumns    []string            `json:"feature_columns"`
	TrainingMarginals map[string]Marginal `json:"training_marginals"`
	TrainingMetadata  trainingMetadata    `json:"training_metadata"`
	ContentHash       string              `json:"content_hash"`
}

// Save writes the trained model as the versioned bundle plus a `.sha256`
// sidecar (§6). Training must have completed first.
func (m *TwoStageModel) Save(path string) error {
	if m.gate == nil || m.ranker == nil {
		return errNotTrained
	}

	artifact := modelArtifact{
		Gate: gateArtifact{
			Booster:     boosterToArtifact(m.gate.booster),
			PosWeight:   m.gate.booster.loss.(logLoss).posWeight,
			CalibratorA: m.gate.calibrator.a,
			CalibratorB: m.gate.calibrator.b,
			Threshold:   m.gate.threshold,
			ThresholdLo: m.gate.thresholdLo,
			ThresholdHi: m.gate.thresholdHi,
		},
		Ranker: rankerArtifact{
			Booster: boosterToArtifact(m.ranker.booster),
			Alpha:   m.ranker.alpha,
		},
		FeatureColumns:    m.featureColumns,
		TrainingMarginals: m.trainingMarginals,
		TrainingMetadata:  m.trainingMeta,
	}
	artifact.ContentHash = computeArtifactHash(artifact)

	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling model artifact: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing model artifact to %s: %w", path, err)
	}

	sidecar := sha256.Sum256(raw)
	sidecarPath := path + ".sha256"
	if err := os.WriteFile(sidecarPath, []byte(hex.EncodeToString(sidecar[:])), 0o644); err != nil {
		return fmt.Errorf("writing model artifact sidecar to %s: %w", sidecarPath, err)
	}
	return nil
}

// Load restores a previously saved bundle, verifying both the embedded
// content hash and the `.sha256` sidecar before accepting it (§4.5 Failure
// semantics: "Integrity-tag mismatch on model load -> fatal").
func (m *TwoStageModel) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading model artifact from %s: %w", path, err)
	}

	sidecarRaw, err := os.ReadFile(path + ".sha256")
	if err != nil {
		return fmt.Errorf("reading model artifact sidecar: %w", err)
	}
	actualSum := sha256.Sum256(raw)
	if hex.EncodeToString(actualSum[:]) != string(sidecarRaw) {
		return fmt.Errorf("%w: sidecar hash does not match artifact contents", errArtifactIntegrity)
	}

	var artifact modelArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return fmt.Errorf("parsing model artifact from %s: %w", path, err)
	}
	if computeArtifactHash(artifact) != artifact.ContentHash {
		return fmt.Errorf("%w: embedded content hash does not match artifact body", errArtifactIntegrity)
	}

	m.featureColumns = artifact.FeatureColumns
	m.trainingMarginals = artifact.TrainingMarginals
	m.trainingMeta = artifact.TrainingMetadata
	m.thresholdCI = [2]float64{artifact.Gate.ThresholdLo, artifact.Gate.ThresholdHi}

	gateBooster := artifactToBooster(artifact.Gate.Booster, logLoss{posWeight: artifact.Gate.PosWeight})
	m.gate = &safetyGate{
		booster:     gateBooster,
		calibrator:  &plattCalibrator{a: artifact.Gate.CalibratorA, b: artifact.Gate.CalibratorB},
		threshold:   artifact.Gate.Threshold,
		thresholdLo: artifact.Gate.ThresholdLo,
		thresholdHi: artifact.Gate.ThresholdHi,
	}

	rankerBooster := artifactToBooster(artifact.Ranker.Booster, pinballLoss{alpha: artifact.Ranker.Alpha})
	m.ranker = &qualityRanker{booster: rankerBooster, alpha: artifact.Ranker.Alpha}

	return nil
}

func boosterToArtifact(b *gradientBooster) boosterArtifact {
	return boosterArtifact{Trees: b.trees, Init: b.init, LearningRate: b.cfg.learningRate}
}

func artifactToBooster(a boosterArtifact, loss lossFunction) *gradientBooster {
	return &gradientBooster{
		cfg:   boosterConfig{learningRate: a.LearningRate},
		loss:  loss,
		trees: a.Trees,
		init:  a.Init,
	}
}

// computeArtifactHash hashes everything that defines scoring behavior, so a
// hand-edited or truncated artifact is caught at load time.
func computeArtifactHash(a modelArtifact) string {
	h := sha256.New()
	raw, _ := json.Marshal(struct {
		Gate           gateArtifact
		Ranker         rankerArtifact
		FeatureColumns []string
	}{a.Gate, a.Ranker, a.FeatureColumns})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}
