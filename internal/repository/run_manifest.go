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

// RunManifestRepository persists the audit trail of pipeline runs.
type RunManifestRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewRunManifestRepository creates a new run manifest repository.
func NewRunManifestRepository(db *pgxpool.Pool, logger *logrus.Logger) *RunManifestRepository {
	return &RunManifestRepository{db: db, log: logger}
}

// Create inserts a new run manifest.
func (r *RunManifestRepository) Create(ctx context.Context, m *domain.RunManifest) error {
	inputHashesJSON, err := json.Marshal(m.InputHashes)
	if err != nil {
		return fmt.Errorf("marshaling input hashes: %w", err)
	}
	outputHashesJSON, err := json.Marshal(m.OutputHashes)
	if err != nil {
		return fmt.Errorf("marshaling output hashes: %w", err)
	}

	query := `
		INSERT INTO run_manifests (
			run_id, kind, started_at, ended_at, input_hashes,
			output_hashes, artifact_version, warning_count, error_count, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err = r.db.Exec(ctx, query,
		m.RunID, m.Kind, m.StartedAt, m.EndedAt, inputHashesJSON,
		outputHashesJSON, m.ArtifactVersion, m.WarningCount, m.ErrorCount, m.Notes,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"run_id": m.RunID,
			"kind":   m.Kind,
			"error":  err,
		}).Error("failed to create run manifest")
		return fmt.Errorf("creating run manifest: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"run_id":        m.RunID,
		"kind":          m.Kind,
		"warning_count": m.WarningCount,
		"error_count":   m.ErrorCount,
	}).Info("run manifest created")

	return nil
}

// GetByRunID retrieves a run manifest by its run ID.
func (r *RunManifestRepository) GetByRunID(ctx context.Context, runID string) (*domain.RunManifest, error) {
	query := `
		SELECT run_id, kind, started_at, ended_at, input_hashes,
			   output_hashes, artifact_version, warning_count, error_count, notes
		FROM run_manifests
		WHERE run_id = $1`

	var m domain.RunManifest
	var inputHashesJSON, outputHashesJSON []byte

	err := r.db.QueryRow(ctx, query, runID).Scan(
		&m.RunID, &m.Kind, &m.StartedAt, &m.EndedAt, &inputHashesJSON,
		&outputHashesJSON, &m.ArtifactVersion, &m.WarningCount, &m.ErrorCount, &m.Notes,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("run manifest not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{"run_id": runID, "error": err}).Error("failed to get run manifest")
		return nil, fmt.Errorf("getting run manifest: %w", err)
	}

	if err := json.Unmarshal(inputHashesJSON, &m.InputHashes); err != nil {
		return nil, fmt.Errorf("unmarshaling input hashes: %w", err)
	}
	if err := json.Unmarshal(outputHashesJSON, &m.OutputHashes); err != nil {
		return nil, fmt.Errorf("unmarshaling output hashes: %w", err)
	}

	return &m, nil
}

// ListByKind returns the most recent manifests of a given run kind.
func (r *RunManifestRepository) ListByKind(ctx context.Context, kind domain.RunKind, limit int) ([]*domain.RunManifest, error) {
	query := `
		SELECT run_id, kind, started_at, ended_at, input_hashes,
			   output_hashes, artifact_version, warning_count, error_count, notes
		FROM run_manifests
		WHERE kind = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("listing run manifests: %w", err)
	}
	defer rows.Close()

	var manifests []*domain.RunManifest
	for rows.Next() {
		var m domain.RunManifest
		var inputHashesJSON, outputHashesJSON []byte

		if err := rows.Scan(
			&m.RunID, &m.Kind, &m.StartedAt, &m.EndedAt, &inputHashesJSON,
			&outputHashesJSON, &m.ArtifactVersion, &m.WarningCount, &m.ErrorCount, &m.Notes,
		); err != nil {
			return nil, fmt.Errorf("scanning run manifest row: %w", err)
		}
		if err := json.Unmarshal(inputHashesJSON, &m.InputHashes); err != nil {
			return nil, fmt.Errorf("unmarshaling input hashes: %w", err)
		}
		if err := json.Unmarshal(outputHashesJSON, &m.OutputHashes); err != nil {
			return nil, fmt.Errorf("unmarshaling output hashes: %w", err)
		}
		manifests = append(manifests, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run manifest rows: %w", err)
	}

	return manifests, nil
}
