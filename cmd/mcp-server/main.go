package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/admissions-triage/core/internal/config"
	"github.com/admissions-triage/core/internal/database"
	"github.com/admissions-triage/core/internal/mcp"
	"github.com/admissions-triage/core/internal/model"
	"github.com/admissions-triage/core/internal/repository"
	"github.com/admissions-triage/core/internal/taxonomy"
)

func main() {
	manager, err := config.NewManager()
	if err != nil {
		os.Stderr.WriteString("loading configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := manager.Validate(); err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	cfg := manager.GetConfig()
	log := config.NewLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewConnection(ctx, database.ConfigFromDomain(cfg.Database), log)
	if err != nil {
		log.WithError(err).Fatal("connecting to database")
	}
	defer db.Close()

	triageRepo := repository.NewTriageResultRepository(db.Pool, log)
	runManifests := repository.NewRunManifestRepository(db.Pool, log)

	trainedModel := loadModelArtifact(cfg.Model.ArtifactDir, log)

	server := mcp.NewServer(cfg.MCP, cfg.Audit.OutputDir, trainedModel, triageRepo, runManifests, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received, stopping admin MCP server")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.WithError(err).Fatal("admin MCP server stopped unexpectedly")
	}
}

// loadModelArtifact attempts to load a trained model bundle so
// explain_applicant has something to ablate against. Its absence is not
// fatal: get_drift_report and get_triage_result serve Postgres-backed
// history regardless, matching mcp.NewServer's nil-model contract.
func loadModelArtifact(artifactDir string, log *logrus.Logger) *model.TwoStageModel {
	path := filepath.Join(artifactDir, taxonomy.ModelArtifactFileName)
	m := &model.TwoStageModel{}
	if err := m.Load(path); err != nil {
		log.WithError(err).WithField("path", path).Warn("no trained model artifact available yet, explain_applicant will fail until one is trained")
		return nil
	}
	return m
}
