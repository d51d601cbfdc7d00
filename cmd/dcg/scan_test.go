package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/core"
)

func TestScanFileFindsDestructiveLineAndSkipsComments(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "deploy.sh")
	content := "#!/bin/bash\n# this comment mentions rm -rf / but should be skipped\necho hello\ngit push --force origin main\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0o644))

	reg := packs.NewBuiltinRegistry(core.Git, core.Filesystem)
	findings, err := scanFile(reg, script)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, 4, findings[0].StartLine)
	require.Equal(t, packs.SeverityCritical, findings[0].Severity)
}

func TestScanFileReturnsNoFindingsForBenignScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "build.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/bash\nset -euo pipefail\nmake build\n"), 0o644))

	reg := packs.NewBuiltinRegistry(core.Git, core.Filesystem)
	findings, err := scanFile(reg, script)
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestRunScanWalksDirectoryAndEmitsJSONFindings(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sh"), []byte("rm -rf /\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("rm -rf /\n"), 0o644))

	scanFormat = "json"
	defer func() { scanFormat = "sarif" }()

	var out bytes.Buffer
	scanCmd.SetOut(&out)
	require.NoError(t, runScan(scanCmd, []string{dir}))
	require.Contains(t, out.String(), "a.sh")
	require.NotContains(t, out.String(), "ignored.txt")
}

func TestRunScanDefaultsToSARIFOutput(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sh"), []byte("rm -rf /\n"), 0o644))

	scanFormat = "sarif"
	var out bytes.Buffer
	scanCmd.SetOut(&out)
	require.NoError(t, runScan(scanCmd, []string{dir}))
	require.Contains(t, out.String(), `"version": "2.1.0"`)
}
