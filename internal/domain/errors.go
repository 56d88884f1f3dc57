package domain

import (
	"fmt"
	"time"
)

// ErrorKind enumerates the error taxonomy used across the triage pipeline.
// Callers pattern-match on Kind via errors.As rather than string comparison.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "CONFIGURATION_ERROR"
	KindSchema        ErrorKind = "SCHEMA_ERROR"
	KindIntegrity     ErrorKind = "INTEGRITY_ERROR"
	KindQuality       ErrorKind = "QUALITY_WARNING"
	KindDrift         ErrorKind = "DRIFT_ALERT"
	KindTransport     ErrorKind = "RETRYABLE_TRANSPORT"
	KindUnitMismatch  ErrorKind = "UNIT_MISMATCH"
)

// PipelineError is the structured error carried by every fatal failure in the
// pipeline. Warnings (QualityWarning, DriftAlert) use the same shape so they
// can be aggregated into a single run report alongside fatal errors.
type PipelineError struct {
	Kind        ErrorKind
	Message     string
	File        string // source file/table, when applicable
	Column      string // source column, when applicable
	ApplicantID int64  // amcas_id, when applicable (0 if not)
	Count       int    // affected-row count, when applicable
	Remediation string
	Timestamp   time.Time
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	loc := e.File
	if e.Column != "" {
		loc = fmt.Sprintf("%s.%s", loc, e.Column)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, loc)
}

func newPipelineError(kind ErrorKind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Timestamp: time.Now().UTC()}
}

// NewConfigurationError reports a missing env var, missing required input
// file, or unrecognized logical file name. Always fatal.
func NewConfigurationError(message string) *PipelineError {
	return newPipelineError(KindConfiguration, message)
}

// NewSchemaError reports a missing ID column after alias resolution, a
// missing feature column at transform time, or a rubric dimension-name
// mismatch against a model artifact. Always fatal.
func NewSchemaError(message, file, column string) *PipelineError {
	e := newPipelineError(KindSchema, message)
	e.File, e.Column = file, column
	return e
}

// NewIntegrityError reports orphaned auxiliary IDs, a model-artifact
// integrity-tag mismatch, or an incompatible feature-pipeline version.
// Always fatal.
func NewIntegrityError(message, file string, count int) *PipelineError {
	e := newPipelineError(KindIntegrity, message)
	e.File, e.Count = file, count
	return e
}

// NewQualityWarning reports a non-fatal data-quality issue: below-threshold
// coverage, an out-of-band row count, an unknown experience type (ignored),
// an unknown parent-education level (defaulted), or a clipped rubric score.
func NewQualityWarning(message, file, column string, count int, remediation string) *PipelineError {
	e := newPipelineError(KindQuality, message)
	e.File, e.Column, e.Count, e.Remediation = file, column, count, remediation
	return e
}

// NewDriftAlert reports per-feature PSI/KS drift or a global drift alert.
// Non-fatal at scoring time (annotated into output); fatal at retraining
// decision time.
func NewDriftAlert(message, column string) *PipelineError {
	e := newPipelineError(KindDrift, message)
	e.Column = column
	return e
}

// NewRetryableTransport wraps a transient transport failure from the LLM
// adapter (429 / 5xx / timeout). Retried with backoff; recorded as a null
// score after the retry budget is exhausted.
func NewRetryableTransport(message string) *PipelineError {
	return newPipelineError(KindTransport, message)
}

// NewUnitMismatch reports a suspected unit error (e.g. minutes logged as
// hours). Always fatal, always carries a remediation hint.
func NewUnitMismatch(message, column, remediation string) *PipelineError {
	e := newPipelineError(KindUnitMismatch, message)
	e.Column, e.Remediation = column, remediation
	return e
}

// IsFatal reports whether an error of this kind aborts the run.
func (k ErrorKind) IsFatal() bool {
	switch k {
	case KindQuality, KindDrift, KindTransport:
		return false
	default:
		return true
	}
}

// Report aggregates every PipelineError raised during a single run so it can
// be emitted as one structured artifact, per §7 ("each run produces a single
// structured error/warning report").
type Report struct {
	RunID     string           `json:"run_id"`
	Errors    []*PipelineError `json:"errors,omitempty"`
	Warnings  []*PipelineError `json:"warnings,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at,omitempty"`
}

// Add appends an error to the appropriate bucket, fatal or warning, based on
// its kind.
func (r *Report) Add(err *PipelineError) {
	if err == nil {
		return
	}
	if err.Kind.IsFatal() {
		r.Errors = append(r.Errors, err)
	} else {
		r.Warnings = append(r.Warnings, err)
	}
}

// HasFatal reports whether the run must abort.
func (r *Report) HasFatal() bool {
	return len(r.Errors) > 0
}

// CountByKind tallies warnings/errors by kind, used for the aggregate counts
// §7 requires in the user-visible report.
func (r *Report) CountByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, e := range r.Errors {
		counts[e.Kind]++
	}
	for _, e := range r.Warnings {
		counts[e.Kind]++
	}
	return counts
}
