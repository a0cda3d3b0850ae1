package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationVersionFlagPrintsVersionWithoutRunning(testInstance *testing.T) {
	application := NewApplication()
	application.versionResolver = func(context.Context) string {
		return "v1.4.0"
	}

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	missingRepositoryPath := filepath.Join(testInstance.TempDir(), "missing")
	application.rootCommand.SetArgs([]string{"--version", "--repository_path", missingRepositoryPath})

	require.NoError(testInstance, application.Execute())
	require.Equal(testInstance, "git-branchhealth version: v1.4.0\n", outputBuffer.String())
}

func TestPrintVersionStopsExecution(testInstance *testing.T) {
	application := NewApplication()
	application.versionResolver = func(context.Context) string {
		return "v2.0.0"
	}

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetContext(context.Background())

	require.ErrorIs(testInstance, application.printVersion(application.rootCommand), errVersionRequested)
	require.Equal(testInstance, "git-branchhealth version: v2.0.0\n", outputBuffer.String())
}

func TestResolveVersionPrefersStampedValue(testInstance *testing.T) {
	originalVersion := Version
	defer func() {
		Version = originalVersion
	}()

	Version = " v9.9.9 "
	require.Equal(testInstance, "v9.9.9", resolveVersion(context.Background()))
}
