package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/admissions-triage/core/internal/domain"
)

// explainApplicantArgs is the decoded input of the explain_applicant tool.
// Features carries the applicant's feature vector keyed by column name,
// since the admin surface has no separate feature store to look values up
// from (§6: explanation arrays are computed on demand, not precomputed).
type explainApplicantArgs struct {
	AMCASID  int64              `json:"amcas_id"`
	Features map[string]float64 `json:"features"`
}

func (s *Server) handleExplainApplicant(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args explainApplicantArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid explain_applicant arguments: %v", err)), nil
	}
	if s.model == nil {
		return errorResult("no trained model artifact is loaded"), nil
	}

	columns := s.model.Columns()
	values := make([]float64, len(columns))
	for i, col := range columns {
		v, ok := args.Features[col]
		if !ok {
			return errorResult(fmt.Sprintf("missing feature column %q", col)), nil
		}
		values[i] = v
	}

	attributions, err := s.model.Explain(domain.FeatureVector{AMCASID: args.AMCASID, Values: values})
	if err != nil {
		return errorResult(fmt.Sprintf("explaining applicant %d: %v", args.AMCASID, err)), nil
	}

	return jsonResult(map[string]any{
		"amcas_id":     args.AMCASID,
		"attributions": attributions,
	})
}

// getDriftReportArgs is the decoded input of the get_drift_report tool.
// RunID is optional: omitted, the most recent "score" run manifest is used.
type getDriftReportArgs struct {
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleGetDriftReport(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args getDriftReportArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid get_drift_report arguments: %v", err)), nil
	}

	runID := args.RunID
	if runID == "" {
		manifests, err := s.runManifests.ListByKind(ctx, domain.RunKindScore, 1)
		if err != nil {
			return errorResult(fmt.Sprintf("looking up latest scoring run: %v", err)), nil
		}
		if len(manifests) == 0 {
			return errorResult("no scoring runs have been recorded yet"), nil
		}
		runID = manifests[0].RunID
	}

	path := filepath.Join(s.auditOutputDir, runID+"_drift.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errorResult(fmt.Sprintf("no drift report persisted for run %q", runID)), nil
		}
		return errorResult(fmt.Sprintf("reading drift report for run %q: %v", runID, err)), nil
	}

	var report json.RawMessage = raw
	return jsonResult(map[string]any{
		"run_id":       runID,
		"drift_report": report,
	})
}

// getTriageResultArgs is the decoded input of the get_triage_result tool.
type getTriageResultArgs struct {
	AMCASID int64 `json:"amcas_id"`
}

func (s *Server) handleGetTriageResult(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args getTriageResultArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid get_triage_result arguments: %v", err)), nil
	}

	if cached, ok := s.resultCache.Get(args.AMCASID); ok {
		return jsonResult(cached)
	}

	result, err := s.triageRepo.GetByAMCASID(ctx, args.AMCASID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errorResult(fmt.Sprintf("no triage result found for amcas_id %d", args.AMCASID)), nil
		}
		return errorResult(fmt.Sprintf("looking up triage result for amcas_id %d: %v", args.AMCASID, err)), nil
	}
	s.resultCache.Add(args.AMCASID, result)

	return jsonResult(result)
}

// decodeArgs round-trips a tool call's arguments through JSON into a typed
// struct. The MCP SDK accepts arguments as either a raw JSON payload or an
// already-decoded map depending on transport, so re-marshaling first keeps
// this independent of which shape req.Params.Arguments arrives in.
func decodeArgs(req *sdkmcp.CallToolRequest, out any) error {
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return fmt.Errorf("re-marshaling tool arguments: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding tool arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*sdkmcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling tool result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(raw)}},
	}, nil
}

func errorResult(message string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: message}},
		IsError: true,
	}
}
