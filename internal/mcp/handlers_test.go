package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/admissions-triage/core/internal/database"
	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/model"
	"github.com/admissions-triage/core/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupTestDB(t *testing.T) *database.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts("../../migrations/0001_init.up.sql"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := database.NewConnection(ctx, database.Config{
		Host: host, Port: port.Int(), Database: "testdb",
		Username: "testuser", Password: "testpass",
		MaxConns: 5, MinConns: 1, SSLMode: "disable",
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func toolRequest(args map[string]any) *sdkmcp.CallToolRequest {
	return &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParams{Arguments: args}}
}

func TestHandleGetTriageResult_ReturnsPersistedResult(t *testing.T) {
	db := setupTestDB(t)
	triageRepo := repository.NewTriageResultRepository(db.Pool, testLogger())

	rank := 3
	require.NoError(t, triageRepo.CreateBatch(context.Background(), "run-1", []domain.TriageResult{
		{
			AMCASID: 2001, PredictedScore: 18.5, PLow: 16.0,
			Tier: domain.TierRecommended, GatePassed: true, Rank: &rank,
			Confidence: domain.ConfidenceHigh, State: domain.StateRanked,
			DriftFlags: []string{},
		},
	}))

	s := NewServer(domain.MCPConfig{ServerName: "test"}, t.TempDir(), nil, triageRepo, nil, testLogger())

	result, err := s.handleGetTriageResult(context.Background(), toolRequest(map[string]any{"amcas_id": 2001}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := result.Content[0].(*sdkmcp.TextContent).Text
	var got domain.TriageResult
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	require.Equal(t, int64(2001), got.AMCASID)
	require.Equal(t, domain.TierRecommended, got.Tier)
}

func TestHandleGetTriageResult_UnknownAMCASIDIsAnErrorResult(t *testing.T) {
	db := setupTestDB(t)
	triageRepo := repository.NewTriageResultRepository(db.Pool, testLogger())

	s := NewServer(domain.MCPConfig{ServerName: "test"}, t.TempDir(), nil, triageRepo, nil, testLogger())

	result, err := s.handleGetTriageResult(context.Background(), toolRequest(map[string]any{"amcas_id": 9999}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleGetDriftReport_ReadsPersistedReportForExplicitRunID(t *testing.T) {
	outputDir := t.TempDir()
	require.NoError(t, writeJSONFixture(outputDir+"/run-42_drift.json", map[string]any{"global_alert": true}))

	s := NewServer(domain.MCPConfig{ServerName: "test"}, outputDir, nil, nil, nil, testLogger())

	result, err := s.handleGetDriftReport(context.Background(), toolRequest(map[string]any{"run_id": "run-42"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := result.Content[0].(*sdkmcp.TextContent).Text
	require.Contains(t, text, "run-42")
	require.Contains(t, text, "global_alert")
}

func TestHandleGetDriftReport_MissingReportIsAnErrorResult(t *testing.T) {
	s := NewServer(domain.MCPConfig{ServerName: "test"}, t.TempDir(), nil, nil, nil, testLogger())

	result, err := s.handleGetDriftReport(context.Background(), toolRequest(map[string]any{"run_id": "does-not-exist"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleExplainApplicant_NoModelLoadedIsAnErrorResult(t *testing.T) {
	s := NewServer(domain.MCPConfig{ServerName: "test"}, t.TempDir(), nil, nil, nil, testLogger())

	result, err := s.handleExplainApplicant(context.Background(), toolRequest(map[string]any{
		"amcas_id": 1, "features": map[string]any{"a": 1.0},
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleExplainApplicant_MissingFeatureColumnIsAnErrorResult(t *testing.T) {
	columns := []string{"gpa", "mcat"}
	m := model.NewTwoStageModel(domain.ModelConfig{
		GateEstimators: 5, GateDepth: 2, GateLearningRate: 0.3,
		RankerEstimators: 5, RankerDepth: 2, RankerLearningRate: 0.3,
	}, columns, testLogger())
	require.NoError(t, m.Train(context.Background(), syntheticFeatures(200), syntheticScores(200)))

	s := NewServer(domain.MCPConfig{ServerName: "test"}, t.TempDir(), m, nil, nil, testLogger())

	result, err := s.handleExplainApplicant(context.Background(), toolRequest(map[string]any{
		"amcas_id": 1, "features": map[string]any{"gpa": 3.5},
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleExplainApplicant_ReturnsOneAttributionPerColumn(t *testing.T) {
	columns := []string{"gpa", "mcat"}
	m := model.NewTwoStageModel(domain.ModelConfig{
		GateEstimators: 5, GateDepth: 2, GateLearningRate: 0.3,
		RankerEstimators: 5, RankerDepth: 2, RankerLearningRate: 0.3,
	}, columns, testLogger())
	require.NoError(t, m.Train(context.Background(), syntheticFeatures(200), syntheticScores(200)))
	m.WithTrainingMarginals(map[string]model.Marginal{
		"gpa":  {Mean: 3.5, StdDev: 0.3},
		"mcat": {Mean: 510, StdDev: 8},
	})

	s := NewServer(domain.MCPConfig{ServerName: "test"}, t.TempDir(), m, nil, nil, testLogger())

	result, err := s.handleExplainApplicant(context.Background(), toolRequest(map[string]any{
		"amcas_id": 1, "features": map[string]any{"gpa": 3.9, "mcat": 518},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := result.Content[0].(*sdkmcp.TextContent).Text
	var decoded struct {
		Attributions []model.FeatureAttribution `json:"attributions"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	require.Len(t, decoded.Attributions, len(columns))
}

func syntheticFeatures(n int) []domain.FeatureVector {
	features := make([]domain.FeatureVector, n)
	for i := 0; i < n; i++ {
		score := i % 26
		features[i] = domain.FeatureVector{AMCASID: int64(i + 1), Values: []float64{float64(score) / 6.5, 480 + float64(score)}}
	}
	return features
}

func syntheticScores(n int) []int {
	scores := make([]int, n)
	for i := range scores {
		scores[i] = i % 26
	}
	return scores
}

func writeJSONFixture(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
