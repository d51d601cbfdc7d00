package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/agentguard/dcg/internal/hook"
)

// withStdin temporarily replaces os.Stdin with a pipe fed by payload, since
// runCheck reads the hook envelope directly from os.Stdin rather than an
// injectable reader — mirroring how Claude Code actually invokes `dcg check`.
func withStdin(t *testing.T, payload string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	old := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = old })
}

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// whatever fn wrote to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	old := os.Stdout
	os.Stdout = w
	fn()
	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func bashPayload(command, cwd string) string {
	in := hook.Input{
		HookEventName: "PreToolUse",
		ToolName:      "Bash",
		Cwd:           cwd,
		ToolInput:     hook.ToolInputData{Command: command},
	}
	b, _ := json.Marshal(in)
	return string(b)
}

func TestRunCheckAllowsBenignCommandAndWritesNoStdout(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	withStdin(t, bashPayload("ls -la", t.TempDir()))

	stdout := captureStdout(t, func() {
		err := runCheck(checkCmd, nil)
		require.NoError(t, err)
	})
	require.Empty(t, stdout)
}

func TestRunCheckDeniesDestructiveCommandAndWritesHookOutput(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	withStdin(t, bashPayload("git push --force origin main", t.TempDir()))

	stdout := captureStdout(t, func() {
		err := runCheck(checkCmd, nil)
		require.NoError(t, err, "check never returns an error: the hook protocol communicates deny via stdout JSON")
	})

	var out hook.Output
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Equal(t, "deny", out.HookSpecificOutput.PermissionDecision)
	require.NotEmpty(t, out.HookSpecificOutput.AllowOnceCode)
	require.NotEmpty(t, out.HookSpecificOutput.Remediation.AllowOnceCommand)
	require.Equal(t, 1.0, out.HookSpecificOutput.Confidence)
	require.Contains(t, stdout, `"confidence":1`)
}

func TestRunCheckIgnoresNonBashTool(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	in := hook.Input{HookEventName: "PreToolUse", ToolName: "Read", Cwd: t.TempDir()}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	withStdin(t, string(b))

	stdout := captureStdout(t, func() {
		err := runCheck(checkCmd, nil)
		require.NoError(t, err)
	})
	require.Empty(t, stdout)
}

func TestRunCheckPersistsTelemetryRowWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "telemetry.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "" +
		"pending_exceptions_path: " + filepath.Join(dir, "pending.jsonl") + "\n" +
		"allow_once_path: " + filepath.Join(dir, "allow_once.jsonl") + "\n" +
		"system_allowlist_path: " + filepath.Join(dir, "allowlist.system.jsonl") + "\n" +
		"user_allowlist_path: " + filepath.Join(dir, "allowlist.user.jsonl") + "\n" +
		"project_allowlist_path: " + filepath.Join(dir, "allowlist.project.jsonl") + "\n" +
		"external_packs_dir: " + filepath.Join(dir, "packs.d") + "\n" +
		"telemetry_db_path: " + dbPath + "\n" +
		"telemetry_disabled: false\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	configPath = cfgPath
	defer func() { configPath = "" }()

	withStdin(t, bashPayload("git push --force origin main", t.TempDir()))
	captureStdout(t, func() {
		require.NoError(t, runCheck(checkCmd, nil))
	})

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM decisions WHERE decision = 'deny'").Scan(&count))
	require.Equal(t, 1, count)
}

func TestRunCheckFailsOpenOnMalformedPayload(t *testing.T) {
	configPath = writeTestConfig(t)
	defer func() { configPath = "" }()

	withStdin(t, "{not json")

	stdout := captureStdout(t, func() {
		err := runCheck(checkCmd, nil)
		require.NoError(t, err, "a malformed hook payload must never block the agent")
	})
	require.Empty(t, stdout)
}
