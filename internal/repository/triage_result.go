package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/admissions-triage/core/internal/domain"
)

// TriageResultRepository persists the consumer-facing triage output for
// each applicant in a scoring run, keyed by (run_id, amcas_id).
type TriageResultRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewTriageResultRepository creates a new triage result repository.
func NewTriageResultRepository(db *pgxpool.Pool, logger *logrus.Logger) *TriageResultRepository {
	return &TriageResultRepository{db: db, log: logger}
}

// CreateBatch inserts a full scoring run's results in a single transaction.
func (r *TriageResultRepository) CreateBatch(ctx context.Context, runID string, results []domain.TriageResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, res := range results {
		driftFlagsJSON, err := json.Marshal(res.DriftFlags)
		if err != nil {
			return fmt.Errorf("marshaling drift flags: %w", err)
		}

		query := `
			INSERT INTO triage_results (
				run_id, amcas_id, predicted_score, p_low, tier,
				gate_passed, rank, confidence, drift_flags, state
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
			)`

		if _, err := tx.Exec(ctx, query,
			runID, res.AMCASID, res.PredictedScore, res.PLow, res.Tier,
			res.GatePassed, res.Rank, res.Confidence, driftFlagsJSON, res.State,
		); err != nil {
			r.log.WithFields(logrus.Fields{
				"run_id":   runID,
				"amcas_id": res.AMCASID,
				"error":    err,
			}).Error("failed to insert triage result")
			return fmt.Errorf("inserting triage result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing triage result batch: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"run_id": runID,
		"count":  len(results),
	}).Info("triage result batch created")

	return nil
}

// GetByAMCASID retrieves the most recent triage result for one applicant,
// backing the get_triage_result MCP tool.
func (r *TriageResultRepository) GetByAMCASID(ctx context.Context, amcasID int64) (*domain.TriageResult, error) {
	query := `
		SELECT amcas_id, predicted_score, p_low, tier, gate_passed,
			   rank, confidence, drift_flags, state
		FROM triage_results
		WHERE amcas_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var res domain.TriageResult
	var driftFlagsJSON []byte

	err := r.db.QueryRow(ctx, query, amcasID).Scan(
		&res.AMCASID, &res.PredictedScore, &res.PLow, &res.Tier, &res.GatePassed,
		&res.Rank, &res.Confidence, &driftFlagsJSON, &res.State,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("triage result not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{"amcas_id": amcasID, "error": err}).Error("failed to get triage result")
		return nil, fmt.Errorf("getting triage result: %w", err)
	}

	if err := json.Unmarshal(driftFlagsJSON, &res.DriftFlags); err != nil {
		return nil, fmt.Errorf("unmarshaling drift flags: %w", err)
	}

	return &res, nil
}

// ListByRunID retrieves every triage result belonging to one scoring run.
func (r *TriageResultRepository) ListByRunID(ctx context.Context, runID string) ([]domain.TriageResult, error) {
	query := `
		SELECT amcas_id, predicted_score, p_low, tier, gate_passed,
			   rank, confidence, drift_flags, state
		FROM triage_results
		WHERE run_id = $1
		ORDER BY rank NULLS LAST`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("listing triage results: %w", err)
	}
	defer rows.Close()

	var results []domain.TriageResult
	for rows.Next() {
		var res domain.TriageResult
		var driftFlagsJSON []byte
		if err := rows.Scan(
			&res.AMCASID, &res.PredictedScore, &res.PLow, &res.Tier, &res.GatePassed,
			&res.Rank, &res.Confidence, &driftFlagsJSON, &res.State,
		); err != nil {
			return nil, fmt.Errorf("scanning triage result row: %w", err)
		}
		if err := json.Unmarshal(driftFlagsJSON, &res.DriftFlags); err != nil {
			return nil, fmt.Errorf("unmarshaling drift flags: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating triage result rows: %w", err)
	}

	return results, nil
}
