package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/taxonomy"
)

// TwoStageModel implements domain.TwoStageModel (§4.5): the calibrated
// safety gate, the quantile quality ranker, and their combination into a
// top-K triage batch.
type TwoStageModel struct {
	cfg    domain.ModelConfig
	log    *logrus.Logger
	gate   *safetyGate
	ranker *qualityRanker

	featureColumns    []string
	trainingMarginals map[string]Marginal
	thresholdCI       [2]float64
	trainingMeta      trainingMetadata
}

// Marginal is the per-feature training-set mean/stddev bundled into the
// artifact for C6's drift audit (§6: "training marginals ... persisted in
// the artifact"). Mirrors internal/features.Marginal's shape; kept as its
// own type so internal/model does not import internal/features solely for
// a two-field struct.
type Marginal struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// WithTrainingMarginals attaches the feature pipeline's fitted marginals so
// they round-trip through Save/Load alongside the gate and ranker.
func (m *TwoStageModel) WithTrainingMarginals(marginals map[string]Marginal) *TwoStageModel {
	m.trainingMarginals = marginals
	return m
}

// TrainingMarginals returns the bundled per-feature training marginals.
func (m *TwoStageModel) TrainingMarginals() map[string]Marginal {
	return m.trainingMarginals
}

// Columns returns the feature columns this model was fit against, in the
// fixed order Explain and Triage expect a caller's values to follow.
func (m *TwoStageModel) Columns() []string {
	return m.featureColumns
}

// TrainingMeta returns the bookkeeping Train recorded: sample count,
// calibrated gate threshold, recall target, and the ranker quantile alpha
// the bakeoff selected.
func (m *TwoStageModel) TrainingMeta() trainingMetadata {
	return m.trainingMeta
}

type trainingMetadata struct {
	NTrain        int     `json:"n_train"`
	Threshold     float64 `json:"threshold"`
	RecallTarget  float64 `json:"recall_target"`
	RankerAlpha   float64 `json:"ranker_alpha"`
}

// NewTwoStageModel constructs an untrained model bound to the feature
// columns it was fit against, used to reject a mismatched scoring frame at
// Triage time (§4.5 Failure semantics: "Missing any feature column at
// scoring time -> fatal").
func NewTwoStageModel(cfg domain.ModelConfig, featureColumns []string, log *logrus.Logger) *TwoStageModel {
	return &TwoStageModel{cfg: cfg, featureColumns: featureColumns, log: log}
}

// Train fits the gate then the ranker, in that order, over the given
// feature matrix and integer 0-25 scores (§4.5).
func (m *TwoStageModel) Train(ctx context.Context, train []domain.FeatureVector, scores []int) error {
	if len(train) != len(scores) {
		return fmt.Errorf("two-stage model: %d feature rows but %d scores", len(train), len(scores))
	}
	if len(train) == 0 {
		return fmt.Errorf("two-stage model: empty training set")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	X := make([][]float64, len(train))
	y := make([]float64, len(scores))
	isLow := make([]bool, len(scores))
	threshold := m.lowScoreThreshold()

	for i, row := range train {
		for _, v := range row.Values {
			if isNaNOrInf(v) {
				return domain.NewSchemaError(
					fmt.Sprintf("non-finite feature value for amcas_id %d", row.AMCASID),
					"feature_matrix", "")
			}
		}
		X[i] = row.Values
		y[i] = float64(scores[i])
		isLow[i] = scores[i] <= threshold
	}

	m.log.WithFields(logrus.Fields{"n": len(train), "threshold": threshold}).Info("training safety gate")
	gate, err := fitSafetyGate(gateConfig{
		estimators:     m.gateEstimators(),
		depth:          m.gateDepth(),
		learningRate:   m.gateLearningRate(),
		recallTarget:   m.recallTarget(),
		bootstrapSeed:  taxonomy.TrainingSeed,
		bootstrapCount: taxonomy.BootstrapResamples,
	}, X, isLow)
	if err != nil {
		return fmt.Errorf("training safety gate: %w", err)
	}
	m.gate = gate
	m.thresholdCI = [2]float64{gate.thresholdLo, gate.thresholdHi}

	m.log.WithField("n", len(train)).Info("training quality ranker")
	ranker, err := fitQualityRanker(rankerConfig{
		estimators:   m.rankerEstimators(),
		depth:        m.rankerDepth(),
		learningRate: m.rankerLearningRate(),
	}, X, y, threshold)
	if err != nil {
		return fmt.Errorf("training quality ranker: %w", err)
	}
	m.ranker = ranker

	m.trainingMeta = trainingMetadata{
		NTrain:       len(train),
		Threshold:    gate.threshold,
		RecallTarget: m.recallTarget(),
		RankerAlpha:  ranker.alpha,
	}
	return nil
}

// Triage combines the gate and ranker over a scoring pool (§4.5 step 1-5).
func (m *TwoStageModel) Triage(features []domain.FeatureVector, k int) (*domain.TriageBatch, error) {
	if m.gate == nil || m.ranker == nil {
		return nil, errNotTrained
	}
	if err := m.validateColumns(features); err != nil {
		return nil, err
	}

	pLow := make([]float64, len(features))
	passedIdx := make([]int, 0, len(features))
	for i, row := range features {
		pLow[i] = m.gate.predict(row.Values)
		if pLow[i] <= m.gate.threshold {
			passedIdx = append(passedIdx, i)
		}
	}

	if len(passedIdx) < k {
		m.log.WithFields(logrus.Fields{
			"n_passed": len(passedIdx),
			"k_target": k,
		}).Warn("fewer applicants passed the gate than the requested top-K; threshold is not being relaxed")
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(passedIdx))
	for i, idx := range passedIdx {
		ranked[i] = scored{idx: idx, score: m.ranker.predict(features[idx].Values)}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if k > len(ranked) {
		k = len(ranked)
	}

	selected := make([]int, k)
	predictedScores := make([]float64, k)
	for i := 0; i < k; i++ {
		selected[i] = ranked[i].idx
		predictedScores[i] = ranked[i].score
	}

	rejectionRate := 0.0
	if len(features) > 0 {
		rejectionRate = 1 - float64(len(passedIdx))/float64(len(features))
	}

	return &domain.TriageBatch{
		SelectedIndices:   selected,
		PredictedScores:   predictedScores,
		PLow:              pLow,
		NPassedGate:       len(passedIdx),
		GateRejectionRate: rejectionRate,
	}, nil
}

func (m *TwoStageModel) validateColumns(features []domain.FeatureVector) error {
	for _, row := range features {
		if len(row.Values) != len(m.featureColumns) {
			return domain.NewSchemaError(
				fmt.Sprintf("feature row for amcas_id %d has %d values, model expects %d", row.AMCASID, len(row.Values), len(m.featureColumns)),
				"feature_matrix", "")
		}
	}
	return nil
}

func (m *TwoStageModel) lowScoreThreshold() int {
	if m.cfg.LowScoreThreshold != 0 {
		return m.cfg.LowScoreThreshold
	}
	return taxonomy.LowScoreThreshold
}

func (m *TwoStageModel) recallTarget() float64 {
	if m.cfg.RecallTarget != 0 {
		return m.cfg.RecallTarget
	}
	return taxonomy.DefaultRecallTarget
}

func (m *TwoStageModel) gateEstimators() int {
	if m.cfg.GateEstimators != 0 {
		return m.cfg.GateEstimators
	}
	return taxonomy.GateEstimators
}

func (m *TwoStageModel) gateDepth() int {
	if m.cfg.GateDepth != 0 {
		return m.cfg.GateDepth
	}
	return taxonomy.GateDepth
}

func (m *TwoStageModel) gateLearningRate() float64 {
	if m.cfg.GateLearningRate != 0 {
		return m.cfg.GateLearningRate
	}
	return 0.1
}

func (m *TwoStageModel) rankerEstimators() int {
	if m.cfg.RankerEstimators != 0 {
		return m.cfg.RankerEstimators
	}
	return taxonomy.RankerEstimators
}

func (m *TwoStageModel) rankerDepth() int {
	if m.cfg.RankerDepth != 0 {
		return m.cfg.RankerDepth
	}
	return taxonomy.RankerDepth
}

func (m *TwoStageModel) rankerLearningRate() float64 {
	if m.cfg.RankerLearningRate != 0 {
		return m.cfg.RankerLearningRate
	}
	return taxonomy.RankerLearningRate
}

var _ domain.TwoStageModel = (*TwoStageModel)(nil)
