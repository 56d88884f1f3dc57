package domain

import "time"

// RunKind discriminates the pipeline stage a RunManifest records.
type RunKind string

const (
	RunKindPrepareDataset RunKind = "prepare_dataset"
	RunKindScoreBatch     RunKind = "score_batch"
	RunKindTrain          RunKind = "train"
	RunKindScore          RunKind = "score"
)

// RunManifest is the audit-trail record persisted for every run of the
// pipeline (§12 supplement): which inputs and artifacts produced a given
// set of triage results, so a past decision can be reconstructed.
type RunManifest struct {
	RunID           string         `json:"run_id"`
	Kind            RunKind        `json:"kind"`
	StartedAt       time.Time      `json:"started_at"`
	EndedAt         time.Time      `json:"ended_at"`
	InputHashes     map[string]string `json:"input_hashes"`
	OutputHashes    map[string]string `json:"output_hashes"`
	ArtifactVersion string         `json:"artifact_version,omitempty"`
	WarningCount    int            `json:"warning_count"`
	ErrorCount      int            `json:"error_count"`
	Notes           string         `json:"notes,omitempty"`
}
