// Package mcp exposes the admin-only on-demand tool surface over the Model
// Context Protocol (§6 supplement): SHAP-style explanation, drift-report
// lookup, and triage-result lookup by AMCAS ID. This is explicitly the
// admin surface named in §6 ("SHAP or other explanation arrays ... intended
// for admin-only surfaces"), not the excluded reviewer-facing HTTP API.
package mcp

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/model"
	"github.com/admissions-triage/core/internal/repository"
)

// resultCacheSize bounds the in-memory get_triage_result cache. An admin
// session looking up results for one run's cohort rarely touches more
// applicants than this in a sitting, and a fixed bound keeps memory use
// predictable regardless of how many runs have ever been scored.
const resultCacheSize = 512

// Server is the admin MCP server: a thin tool surface over a trained
// two-stage model and the Postgres-backed run/triage repositories.
type Server struct {
	cfg            domain.MCPConfig
	auditOutputDir string
	log            *logrus.Logger
	mcpServer      *sdkmcp.Server

	model        *model.TwoStageModel
	triageRepo   *repository.TriageResultRepository
	runManifests *repository.RunManifestRepository
	resultCache  *lru.Cache[int64, *domain.TriageResult]
}

// NewServer constructs the admin tool surface and registers its three
// tools. trainedModel may be nil when no artifact has been loaded yet;
// explain_applicant then fails the individual call rather than blocking
// server startup, since get_drift_report and get_triage_result don't need
// a model at all.
func NewServer(
	cfg domain.MCPConfig,
	auditOutputDir string,
	trainedModel *model.TwoStageModel,
	triageRepo *repository.TriageResultRepository,
	runManifests *repository.RunManifestRepository,
	log *logrus.Logger,
) *Server {
	resultCache, _ := lru.New[int64, *domain.TriageResult](resultCacheSize)

	s := &Server{
		cfg:            cfg,
		auditOutputDir: auditOutputDir,
		model:          trainedModel,
		triageRepo:     triageRepo,
		runManifests:   runManifests,
		resultCache:    resultCache,
		log:            log,
	}

	serverInfo := &sdkmcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	s.mcpServer = sdkmcp.NewServer(serverInfo, nil)

	s.mcpServer.AddTool(&sdkmcp.Tool{
		Name: "explain_applicant",
		Description: "SHAP-style per-feature attribution for one applicant's gate and ranker " +
			"predictions, computed on demand by single-feature mean ablation against the " +
			"training marginals.",
	}, s.handleExplainApplicant)

	s.mcpServer.AddTool(&sdkmcp.Tool{
		Name: "get_drift_report",
		Description: "The persisted PSI/KS drift report for a scoring run, or the most recent " +
			"scoring run's report when run_id is omitted.",
	}, s.handleGetDriftReport)

	s.mcpServer.AddTool(&sdkmcp.Tool{
		Name:        "get_triage_result",
		Description: "The consumer-facing triage result for one applicant, looked up by AMCAS ID.",
	}, s.handleGetTriageResult)

	return s
}

// Start runs the server over stdio until ctx is cancelled, matching the
// teacher's lite server's stdio-first transport default.
func (s *Server) Start(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{
		"server_name":    s.cfg.ServerName,
		"server_version": s.cfg.ServerVersion,
	}).Info("starting admin MCP server")

	if err := s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		return fmt.Errorf("admin MCP server failed: %w", err)
	}
	return nil
}
