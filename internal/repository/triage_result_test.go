package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/admissions-triage/core/internal/database"
	"github.com/admissions-triage/core/internal/domain"
)

func setupTestPool(t *testing.T) *database.DB {
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

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(ctx, database.Config{
		Host: host, Port: port.Int(), Database: "testdb",
		Username: "testuser", Password: "testpass",
		MaxConns: 5, MinConns: 1, SSLMode: "disable",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func TestTriageResultRepository_CreateAndFetch(t *testing.T) {
	db := setupTestPool(t)
	logger := logrus.New()
	repo := NewTriageResultRepository(db.Pool, logger)

	rank := 1
	results := []domain.TriageResult{
		{
			AMCASID: 1001, PredictedScore: 19.5, PLow: 17.0,
			Tier: domain.TierTopCandidate, GatePassed: true, Rank: &rank,
			Confidence: domain.ConfidenceHigh, State: domain.StateRanked,
			DriftFlags: []string{},
		},
	}

	ctx := context.Background()
	require.NoError(t, repo.CreateBatch(ctx, "run-1", results))

	got, err := repo.GetByAMCASID(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, int64(1001), got.AMCASID)
	require.Equal(t, domain.TierTopCandidate, got.Tier)

	all, err := repo.ListByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestRunManifestRepository_CreateAndFetch(t *testing.T) {
	db := setupTestPool(t)
	logger := logrus.New()
	repo := NewRunManifestRepository(db.Pool, logger)

	m := &domain.RunManifest{
		RunID: "run-1", Kind: domain.RunKindScore,
		StartedAt: time.Now().UTC(), EndedAt: time.Now().UTC(),
		InputHashes: map[string]string{"feature_pipeline": "abc123"},
		OutputHashes: map[string]string{"triage_results": "def456"},
		WarningCount: 2, ErrorCount: 0,
	}

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, m))

	got, err := repo.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "abc123", got.InputHashes["feature_pipeline"])

	list, err := repo.ListByKind(ctx, domain.RunKindScore, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
