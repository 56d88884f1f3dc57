package taxonomy

// ModelArtifactFileName is the two-stage model bundle's file name within
// domain.ModelConfig.ArtifactDir, shared between the training CLI that
// writes it and the admin MCP server that loads it.
const ModelArtifactFileName = "model.bin"

// FeaturePipelineFileName is the fitted feature pipeline's file name
// alongside the model artifact, needed to reproduce the exact column order
// and fit-time scalers at scoring time.
const FeaturePipelineFileName = "feature_pipeline.bin"

// RubricCacheFileName is the resumable per-dimension score cache's file
// name within domain.IngestConfig.OutputDir (§4.3 "Resumability").
const RubricCacheFileName = "rubric_cache.json"

// ApplicantSnapshotFileName is the losslessly round-trippable unified-frame
// snapshot's file name, written after data preparation and read back by
// --skip-ingestion so a later run need not re-parse the raw cycle files.
const ApplicantSnapshotFileName = "applicants.json"
