package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/admissions-triage/core/internal/audit"
	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/features"
	"github.com/admissions-triage/core/internal/ingest"
	"github.com/admissions-triage/core/internal/model"
	"github.com/admissions-triage/core/internal/repository"
	"github.com/admissions-triage/core/internal/rubric"
	"github.com/admissions-triage/core/internal/taxonomy"
	"github.com/admissions-triage/core/pkg/llm"
)

// runDeps bundles the repositories and loggers a pipeline run needs,
// separated from pipelineOptions so the orchestration below can be
// exercised with fakes in tests without a live database or LLM endpoint.
type runDeps struct {
	cfg          *domain.Config
	log          *logrus.Logger
	runManifests *repository.RunManifestRepository
	triageResults *repository.TriageResultRepository
}

// runPipeline executes every stage named in §4 in order, skipping ingestion
// and/or rubric scoring per the given options, and returns a classified
// stageError on failure so main can choose the right exit code.
func runPipeline(ctx context.Context, deps *runDeps, opts pipelineOptions) error {
	runID := fmt.Sprintf("run-%d-%s", opts.cycleYear, uuid.NewString())

	applicants, err := stageIngest(ctx, deps, opts, runID)
	if err != nil {
		return err
	}

	var idFilter map[int64]bool
	if opts.idFile != "" {
		idFilter, err = readIDFile(opts.idFile)
		if err != nil {
			return configError(err)
		}
	}
	applicants = filterByIDs(applicants, idFilter)
	if len(applicants) == 0 {
		return dataError(fmt.Errorf("applicant pool is empty after ingestion and filtering"))
	}

	rubrics, err := stageRubric(ctx, deps, opts, applicants)
	if err != nil {
		return err
	}

	if !opts.twoStage {
		deps.log.Info("--two-stage disabled, stopping after rubric scoring")
		return nil
	}

	return stageTrainAndScore(ctx, deps, opts, runID, applicants, rubrics)
}

// stageIngest implements C2, or loads the last snapshot when
// --skip-ingestion is set (§4.2).
func stageIngest(ctx context.Context, deps *runDeps, opts pipelineOptions, runID string) ([]domain.Applicant, error) {
	snapshotPath := filepath.Join(deps.cfg.Ingest.OutputDir, taxonomy.ApplicantSnapshotFileName)

	if opts.skipIngestion {
		applicants, err := ingest.ReadApplicantSnapshot(snapshotPath)
		if err != nil {
			return nil, configError(fmt.Errorf("--skip-ingestion given but no applicant snapshot available: %w", err))
		}
		deps.log.WithField("n", len(applicants)).Info("skipped ingestion, loaded applicant snapshot")
		return applicants, nil
	}

	preparer := ingest.NewPreparer(deps.cfg.Ingest.RawDataDir, deps.log).WithOutputDir(deps.cfg.Ingest.OutputDir)
	progress := func(stage string, pct float64) {
		deps.log.WithFields(logrus.Fields{"stage": stage, "pct_complete": pct}).Debug("preparing dataset")
	}

	applicants, report, err := preparer.PrepareDataset(ctx, opts.years, progress)
	if err != nil {
		return nil, dataError(err)
	}
	if report.HasFatal() {
		return nil, dataError(fmt.Errorf("data preparation reported %d fatal errors", len(report.Errors)))
	}

	if err := ingest.WriteApplicantSnapshot(applicants, snapshotPath); err != nil {
		deps.log.WithError(err).Warn("failed to persist applicant snapshot for future --skip-ingestion runs")
	}

	if deps.runManifests != nil {
		recordManifest(ctx, deps, runID, domain.RunKindPrepareDataset, report)
	}

	return applicants, nil
}

// stageRubric implements C3, or returns the cache as-is when --skip-rubric
// is set (§4.3).
func stageRubric(ctx context.Context, deps *runDeps, opts pipelineOptions, applicants []domain.Applicant) ([]domain.RubricScore, error) {
	cachePath := filepath.Join(deps.cfg.Ingest.OutputDir, taxonomy.RubricCacheFileName)

	if opts.skipRubric {
		cache, err := rubric.LoadCache(cachePath)
		if err != nil {
			return nil, configError(fmt.Errorf("--skip-rubric given but rubric cache unreadable: %w", err))
		}
		scores := cache.All()
		deps.log.WithField("n", len(scores)).Info("skipped rubric scoring, loaded cache as-is")
		return scores, nil
	}

	llmCfg := llm.Config{
		APIKey:            deps.cfg.LLM.APIKey,
		BaseURL:           deps.cfg.LLM.Endpoint,
		Model:             deps.cfg.LLM.ModelVersion,
		Temperature:       deps.cfg.LLM.Temperature,
		Seed:              deps.cfg.LLM.Seed,
		MaxTokens:         deps.cfg.LLM.MaxTokens,
		RequestsPerMinute: deps.cfg.LLM.RequestsPerMinute,
		Timeout:           deps.cfg.LLM.Timeout,
	}
	client := llm.NewAnthropicClient(llmCfg)

	scorer, err := rubric.NewScorer(client, rubric.Config{
		ConcurrencyCeiling: deps.cfg.LLM.ConcurrencyCeiling,
		CachePath:          cachePath,
		Temperature:        deps.cfg.LLM.Temperature,
		Seed:               deps.cfg.LLM.Seed,
		MaxRetries:         deps.cfg.LLM.MaxRetries,
		RedisURL:           deps.cfg.Cache.RedisURL,
		LockTTL:            deps.cfg.Cache.DefaultTTL,
	}, deps.log)
	if err != nil {
		return nil, configError(err)
	}

	scores, report, err := scorer.ScoreBatch(ctx, applicants, opts.resume)
	if err != nil {
		return nil, dataError(err)
	}
	if report.HasFatal() {
		return nil, dataError(fmt.Errorf("rubric scoring reported %d fatal errors", len(report.Errors)))
	}
	return scores, nil
}

// stageTrainAndScore implements C4 (leakage-safe fit on the training split
// only), C5 (gate + ranker training, optionally preceded by the alpha
// bakeoff already performed inside fitQualityRanker), and C6 (holdout
// evaluation, drift, fairness), then persists the model artifact and the
// scored cohort's triage results.
func stageTrainAndScore(ctx context.Context, deps *runDeps, opts pipelineOptions, runID string, applicants []domain.Applicant, rubrics []domain.RubricScore) error {
	labeled := applicantsWithLabels(applicants)
	if len(labeled) < taxonomy.MinRankerTrainingRows {
		deps.log.WithFields(logrus.Fields{
			"n_labeled": len(labeled),
			"minimum":   taxonomy.MinRankerTrainingRows,
		}).Warn("fewer labeled applicants than the recommended minimum training size")
	}

	trainSet, holdoutSet := splitTrainHoldout(labeled)

	pipeline := features.NewPipeline()
	trainFeatures, err := pipeline.FitTransform(trainSet, rubrics)
	if err != nil {
		return dataError(fmt.Errorf("fitting feature pipeline: %w", err))
	}
	holdoutFeatures, err := pipeline.Transform(holdoutSet, rubrics)
	if err != nil {
		return dataError(fmt.Errorf("transforming holdout set: %w", err))
	}

	trainScores := scoresFor(trainSet)
	holdoutScores := scoresFor(holdoutSet)

	twoStage := model.NewTwoStageModel(deps.cfg.Model, pipeline.Columns(), deps.log)
	if err := twoStage.Train(ctx, trainFeatures, trainScores); err != nil {
		return modelError(fmt.Errorf("training two-stage model: %w", err))
	}
	twoStage.WithTrainingMarginals(toModelMarginals(pipeline.TrainingMarginals()))

	if opts.bakeoff {
		deps.log.WithField("selected_alpha", twoStage.TrainingMeta().RankerAlpha).
			Info("quantile alpha bakeoff selected ranker alpha minimizing validation contamination")
	}

	report, err := evaluateHoldout(deps, runID, twoStage, pipeline, holdoutFeatures, holdoutScores, holdoutSet, trainFeatures)
	if err != nil {
		return modelError(err)
	}
	if err := report.Persist(deps.cfg.Audit.OutputDir, deps.log); err != nil {
		deps.log.WithError(err).Warn("failed to persist audit report artifacts")
	}

	artifactDir := deps.cfg.Model.ArtifactDir
	if err := twoStage.Save(filepath.Join(artifactDir, taxonomy.ModelArtifactFileName)); err != nil {
		return modelError(fmt.Errorf("saving model artifact: %w", err))
	}
	if err := pipeline.Save(filepath.Join(artifactDir, taxonomy.FeaturePipelineFileName)); err != nil {
		return modelError(fmt.Errorf("saving feature pipeline artifact: %w", err))
	}

	scoringFeatures, err := pipeline.Transform(applicants, rubrics)
	if err != nil {
		return dataError(fmt.Errorf("transforming scoring pool: %w", err))
	}
	batch, err := twoStage.Triage(scoringFeatures, len(scoringFeatures))
	if err != nil {
		return modelError(fmt.Errorf("scoring applicant pool: %w", err))
	}

	marginals := toAuditMarginals(twoStage.TrainingMarginals())
	results := buildTriageResults(applicants, scoringFeatures, batch, pipeline.Columns(), marginals)

	if deps.triageResults != nil {
		if err := deps.triageResults.CreateBatch(ctx, runID, results); err != nil {
			deps.log.WithError(err).Error("failed to persist triage results")
		}
	}
	if deps.runManifests != nil {
		recordManifest(ctx, deps, runID, domain.RunKindScore, &domain.Report{RunID: runID, StartedAt: time.Now().UTC()})
	}

	deps.log.WithFields(logrus.Fields{
		"run_id":          runID,
		"n_scored":        len(results),
		"n_passed_gate":   batch.NPassedGate,
		"gate_reject_rate": batch.GateRejectionRate,
	}).Info("triage run complete")

	return nil
}

func applicantsWithLabels(applicants []domain.Applicant) []domain.Applicant {
	labeled := make([]domain.Applicant, 0, len(applicants))
	for _, a := range applicants {
		if a.ApplicationReviewScore != nil {
			labeled = append(labeled, a)
		}
	}
	return labeled
}

// splitTrainHoldout deterministically reserves every fifth labeled
// applicant (by AMCAS ID order) as a holdout set for post-training
// evaluation, keeping the split stable across runs without depending on a
// random source.
func splitTrainHoldout(labeled []domain.Applicant) (train, holdout []domain.Applicant) {
	sorted := append([]domain.Applicant{}, labeled...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AMCASID < sorted[j].AMCASID })

	for i, a := range sorted {
		if i%5 == 4 {
			holdout = append(holdout, a)
		} else {
			train = append(train, a)
		}
	}
	return train, holdout
}

func scoresFor(applicants []domain.Applicant) []int {
	scores := make([]int, len(applicants))
	for i, a := range applicants {
		scores[i] = *a.ApplicationReviewScore
	}
	return scores
}

func recordManifest(ctx context.Context, deps *runDeps, runID string, kind domain.RunKind, report *domain.Report) {
	manifest := &domain.RunManifest{
		RunID:        runID,
		Kind:         kind,
		StartedAt:    report.StartedAt,
		EndedAt:      time.Now().UTC(),
		InputHashes:  map[string]string{},
		OutputHashes: map[string]string{},
		WarningCount: len(report.Warnings),
		ErrorCount:   len(report.Errors),
	}
	if err := deps.runManifests.Create(ctx, manifest); err != nil {
		deps.log.WithError(err).Warn("failed to record run manifest")
	}
}

func toModelMarginals(src map[string]features.Marginal) map[string]model.Marginal {
	out := make(map[string]model.Marginal, len(src))
	for k, v := range src {
		out[k] = model.Marginal{Mean: v.Mean, StdDev: v.StdDev}
	}
	return out
}

func toAuditMarginals(src map[string]model.Marginal) map[string]audit.Marginal {
	out := make(map[string]audit.Marginal, len(src))
	for k, v := range src {
		out[k] = audit.Marginal{Mean: v.Mean, StdDev: v.StdDev}
	}
	return out
}

// evaluateHoldout scores the held-out split and assembles the full §4.6
// report: contamination, gate recall with its Wilson lower bound, NDCG and
// Spearman with bootstrap CIs, calibration error, drift against the
// training marginals, and the fairness suite over every protected
// attribute plus the SESAblation pair (ses_value and first_generation
// fairness reports from the same model; no model is refit).
func evaluateHoldout(deps *runDeps, runID string, twoStage *model.TwoStageModel, pipeline *features.Pipeline, holdoutFeatures []domain.FeatureVector, holdoutScores []int, holdoutSet []domain.Applicant, trainFeatures []domain.FeatureVector) (audit.RunReport, error) {
	batch, err := twoStage.Triage(holdoutFeatures, len(holdoutFeatures))
	if err != nil {
		return audit.RunReport{}, fmt.Errorf("scoring holdout set: %w", err)
	}

	threshold := deps.cfg.Model.LowScoreThreshold
	auditor := audit.New()

	contamination := auditor.Contamination(batch.SelectedIndices, holdoutScores, threshold)

	var truePositives, actualPositives int
	passed := make(map[int]bool, len(batch.SelectedIndices))
	for _, idx := range batch.SelectedIndices {
		passed[idx] = true
	}
	for i, score := range holdoutScores {
		if score <= threshold {
			actualPositives++
			if !passed[i] {
				truePositives++
			}
		}
	}
	recall := audit.Recall(truePositives, actualPositives)
	recallLower := auditor.WilsonLowerBound(truePositives, actualPositives, deps.cfg.Audit.RecallConfidence)
	recallUpper := 1 - auditor.WilsonLowerBound(actualPositives-truePositives, actualPositives, deps.cfg.Audit.RecallConfidence)

	relevance := make([]float64, len(batch.SelectedIndices))
	predicted := make([]float64, len(batch.SelectedIndices))
	actual := make([]float64, len(batch.SelectedIndices))
	for i, idx := range batch.SelectedIndices {
		relevance[i] = float64(holdoutScores[idx])
		predicted[i] = batch.PredictedScores[i]
		actual[i] = float64(holdoutScores[idx])
	}
	ndcg := audit.NDCGAtK(relevance, len(relevance))
	spearman := audit.SpearmanRankCorrelation(predicted, actual)

	ndcgLower, ndcgUpper := audit.BootstrapMetricCI(len(relevance), taxonomy.BootstrapResamples, taxonomy.TrainingSeed, func(idx []int) float64 {
		sample := make([]float64, len(idx))
		for i, j := range idx {
			sample[i] = relevance[j]
		}
		return audit.NDCGAtK(sample, len(sample))
	})
	spearmanLower, spearmanUpper := audit.BootstrapMetricCI(len(predicted), taxonomy.BootstrapResamples, taxonomy.TrainingSeed, func(idx []int) float64 {
		p := make([]float64, len(idx))
		a := make([]float64, len(idx))
		for i, j := range idx {
			p[i] = predicted[j]
			a[i] = actual[j]
		}
		return audit.SpearmanRankCorrelation(p, a)
	})

	labels := make([]float64, len(holdoutScores))
	for i, score := range holdoutScores {
		if score <= threshold {
			labels[i] = 1
		}
	}
	ece := audit.ExpectedCalibrationError(batch.PLow, labels, taxonomy.ECEBins)

	trainingSamples := marginalSamplesByColumn(pipeline.Columns(), trainFeatures)
	scoringSamples := marginalSamplesByColumn(pipeline.Columns(), holdoutFeatures)
	driftReport := audit.ComputeDriftReport(pipeline.Columns(), trainingSamples, scoringSamples, toAuditMarginals(pipeline.TrainingMarginals()))

	fairnessReports := make([]audit.FairnessReport, 0, len(taxonomy.ProtectedColumns))
	for _, attr := range []string{"gender", "race", "citizenship", "age_band"} {
		fairnessReports = append(fairnessReports, audit.ComputeFairnessReport(attr, fairnessOutcomes(holdoutSet, holdoutScores, passed, threshold, attr)))
	}
	for _, pair := range taxonomy.IntersectionalSlices {
		attr := audit.IntersectionGroup(pair[0], pair[1])
		fairnessReports = append(fairnessReports, audit.ComputeFairnessReport(attr, intersectionalOutcomes(holdoutSet, holdoutScores, passed, threshold, pair)))
	}

	withSES := audit.ComputeFairnessReport("ses_value", fairnessOutcomes(holdoutSet, holdoutScores, passed, threshold, "ses_value"))
	withoutSES := audit.ComputeFairnessReport("first_generation", fairnessOutcomes(holdoutSet, holdoutScores, passed, threshold, "first_generation"))

	return audit.RunReport{
		RunID:            runID,
		TierDistribution: tierDistribution(batch.PredictedScores),
		GateRecall:       audit.MetricCI{Estimate: recall, CILower: recallLower, CIUpper: recallUpper},
		NDCG:             audit.MetricCI{Estimate: ndcg, CILower: ndcgLower, CIUpper: ndcgUpper},
		Spearman:         audit.MetricCI{Estimate: spearman, CILower: spearmanLower, CIUpper: spearmanUpper},
		ECE:              ece,
		Contamination:    &contamination,
		DriftReport:      driftReport,
		FairnessReports:  fairnessReports,
		SESAblation:      &audit.SESAblation{WithSES: withSES, WithoutSES: withoutSES},
	}, nil
}

func tierDistribution(predictedScores []float64) audit.TierDistribution {
	var dist audit.TierDistribution
	for _, s := range predictedScores {
		switch domain.TierForScore(s) {
		case domain.TierNotCompetitive:
			dist.NotCompetitive++
		case domain.TierReview:
			dist.Review++
		case domain.TierRecommended:
			dist.Recommended++
		case domain.TierTopCandidate:
			dist.TopCandidate++
		}
	}
	return dist
}

func marginalSamplesByColumn(columns []string, vectors []domain.FeatureVector) map[string][]float64 {
	samples := make(map[string][]float64, len(columns))
	for _, v := range vectors {
		for i, col := range columns {
			if i < len(v.Values) {
				samples[col] = append(samples[col], v.Values[i])
			}
		}
	}
	return samples
}

func fairnessOutcomes(applicants []domain.Applicant, scores []int, passed map[int]bool, threshold int, attr string) []audit.ApplicantOutcome {
	outcomes := make([]audit.ApplicantOutcome, len(applicants))
	for i, a := range applicants {
		outcomes[i] = audit.ApplicantOutcome{
			Group:             audit.AttributeValue(a, attr),
			Selected:          passed[i],
			ActualPositive:    scores[i] > threshold,
			PredictedPositive: passed[i],
		}
	}
	return outcomes
}

func intersectionalOutcomes(applicants []domain.Applicant, scores []int, passed map[int]bool, threshold int, pair [2]string) []audit.ApplicantOutcome {
	outcomes := make([]audit.ApplicantOutcome, len(applicants))
	for i, a := range applicants {
		outcomes[i] = audit.ApplicantOutcome{
			Group:             audit.IntersectionValue(a, pair[0], pair[1]),
			Selected:          passed[i],
			ActualPositive:    scores[i] > threshold,
			PredictedPositive: passed[i],
		}
	}
	return outcomes
}

// buildTriageResults turns a scored TriageBatch back into the per-applicant
// §6 contract: rank among gate-passed applicants in predicted-score order,
// or a gate rejection with no rank.
func buildTriageResults(applicants []domain.Applicant, featureVectors []domain.FeatureVector, batch *domain.TriageBatch, columns []string, marginals map[string]audit.Marginal) []domain.TriageResult {
	rankByIndex := make(map[int]int, len(batch.SelectedIndices))
	scoreByIndex := make(map[int]float64, len(batch.SelectedIndices))
	for position, idx := range batch.SelectedIndices {
		rankByIndex[idx] = position + 1
		scoreByIndex[idx] = batch.PredictedScores[position]
	}

	results := make([]domain.TriageResult, len(applicants))
	for i, a := range applicants {
		rank, gatePassed := rankByIndex[i]
		predictedScore := scoreByIndex[i]
		pLow := 0.0
		if i < len(batch.PLow) {
			pLow = batch.PLow[i]
		}

		state := domain.StateRejectedByGate
		var rankPtr *int
		if gatePassed {
			state = domain.StateRanked
			r := rank
			rankPtr = &r
		}

		flags := driftFlags(featureVectors[i], columns, marginals)
		confidence := domain.ConfidenceHigh
		if len(flags) > 0 {
			confidence = domain.ConfidenceLow
		}

		results[i] = domain.TriageResult{
			AMCASID:        a.AMCASID,
			PredictedScore: predictedScore,
			PLow:           pLow,
			Tier:           domain.TierForScore(predictedScore),
			GatePassed:     gatePassed,
			Rank:           rankPtr,
			Confidence:     confidence,
			DriftFlags:     flags,
			State:          state,
		}
	}
	return results
}

// driftFlags names every feature whose value lands more than
// taxonomy.OODSigmaThreshold standard deviations from its training
// marginal, the applicant-level counterpart of audit.IsOutOfDomain's
// pooled boolean check.
func driftFlags(vector domain.FeatureVector, columns []string, marginals map[string]audit.Marginal) []string {
	var flags []string
	for i, col := range columns {
		if i >= len(vector.Values) {
			continue
		}
		m, ok := marginals[col]
		if !ok || m.StdDev == 0 {
			continue
		}
		sigma := (vector.Values[i] - m.Mean) / m.StdDev
		if sigma < 0 {
			sigma = -sigma
		}
		if sigma > taxonomy.OODSigmaThreshold {
			flags = append(flags, col)
		}
	}
	return flags
}
