package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCheckUpdatesPersistsVersionCheckRecord(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	var out bytes.Buffer
	updateCmd.SetOut(&out)
	require.NoError(t, runCheckUpdates(updateCmd, nil))
	require.Contains(t, out.String(), Version)

	_, cfg, err := bootstrap()
	require.NoError(t, err)
	recPath := filepath.Join(filepath.Dir(cfg.TelemetryDBPath), "version_check.json")

	data, err := os.ReadFile(recPath)
	require.NoError(t, err)

	var rec versionCheckRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	require.Equal(t, Version, rec.CurrentVersion)
	require.False(t, rec.CheckedAt.IsZero())
}
