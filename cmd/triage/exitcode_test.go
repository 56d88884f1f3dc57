package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeFor_NilIsSuccess(t *testing.T) {
	require.Equal(t, exitOK, exitCodeFor(nil))
}

func TestExitCodeFor_ClassifiedErrors(t *testing.T) {
	require.Equal(t, exitConfigError, exitCodeFor(configError(errors.New("bad config"))))
	require.Equal(t, exitDataError, exitCodeFor(dataError(errors.New("bad data"))))
	require.Equal(t, exitModelError, exitCodeFor(modelError(errors.New("bad model"))))
}

func TestExitCodeFor_UnclassifiedErrorIsConfigError(t *testing.T) {
	require.Equal(t, exitConfigError, exitCodeFor(errors.New("flag parsing failed")))
}

func TestExitCodeFor_WrappedStageErrorStillClassifies(t *testing.T) {
	wrapped := errors.New("outer: " + dataError(errors.New("inner")).Error())
	require.Equal(t, exitConfigError, exitCodeFor(wrapped))

	stage := dataError(errors.New("inner"))
	rewrapped := errors.Join(stage)
	require.Equal(t, exitDataError, exitCodeFor(rewrapped))
}
