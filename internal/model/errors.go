package model

import "errors"

var (
	errEmptyCalibrationSplit = errors.New("model: empty calibration split")
	errCalibrationDiverged   = errors.New("model: platt calibration diverged")
	errModeCollapse          = errors.New("model: gate underperforms the majority-class baseline")
	errNotTrained            = errors.New("model: triage requested before training")
	errArtifactIntegrity     = errors.New("model: artifact integrity-tag mismatch")
)
