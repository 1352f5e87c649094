package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunEndToEndWithSeedData(t *testing.T) {
	tempDir := t.TempDir()
	jobPath := filepath.Join(tempDir, "job.hcl")
	snapshotPath := filepath.Join(tempDir, "ordr.snapshot")

	job := `
targets = ["producers.Printed"]
seed = {
	"producers.EnvVars" = {}
}
`
	require.NoError(t, os.WriteFile(jobPath, []byte(job), 0o600))

	t.Setenv("ORDRCTL_JOB_FILE", jobPath)
	t.Setenv("ORDRCTL_SNAPSHOT_OUT", snapshotPath)

	out := &bytes.Buffer{}
	err := run(out, []string{jobPath})
	require.NoError(t, err)
	require.Contains(t, out.String(), "Completed")

	_, statErr := os.Stat(snapshotPath)
	require.NoError(t, statErr)
}

func TestRunMissingJobFile(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(out, []string{filepath.Join(t.TempDir(), "does-not-exist.hcl")})
	require.Error(t, err)
}
