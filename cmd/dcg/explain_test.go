package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunExplainReportsQuickRejectForBenignCommand(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	var out bytes.Buffer
	explainCmd.SetOut(&out)
	require.NoError(t, runExplain(explainCmd, []string{"ls", "-la"}))
	require.Contains(t, out.String(), "quick-reject: true")
	require.Contains(t, out.String(), "would stop here (Allow)")
}

func TestRunExplainReportsMatchingPackForDestructiveCommand(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	var out bytes.Buffer
	explainCmd.SetOut(&out)
	require.NoError(t, runExplain(explainCmd, []string{"git", "push", "--force", "origin", "main"}))
	require.Contains(t, out.String(), "quick-reject: false")
	require.Contains(t, out.String(), "core.git")
	require.Contains(t, out.String(), "MATCH")
}
