package evaluator_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/allowlist"
	"github.com/agentguard/dcg/internal/evaluator"
	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/core"
	"github.com/agentguard/dcg/internal/pending"
)

func newTestEvaluator(t *testing.T) *evaluator.Evaluator {
	t.Helper()
	dir := t.TempDir()
	reg := packs.NewBuiltinRegistry(core.Git, core.Filesystem)

	resolver := &allowlist.Resolver{
		System:        allowlist.NewFileStore(filepath.Join(dir, "system.jsonl"), allowlist.LayerSystem),
		User:          allowlist.NewFileStore(filepath.Join(dir, "user.jsonl"), allowlist.LayerUser),
		Project:       allowlist.NewFileStore(filepath.Join(dir, "project.jsonl"), allowlist.LayerProject),
		BranchContext: allowlist.NewFileStore(filepath.Join(dir, "project.jsonl"), allowlist.LayerBranchContext),
		Session:       allowlist.NewSessionLayer(),
	}
	pendingStore := pending.NewStore(filepath.Join(dir, "pending.jsonl"), nil)
	onceStore := pending.NewOnceStore(filepath.Join(dir, "once.jsonl"))

	return evaluator.New(reg, resolver, onceStore, pendingStore)
}

func TestEvaluateEmptyCommandAllows(t *testing.T) {
	e := newTestEvaluator(t)
	result := e.Evaluate(time.Now(), evaluator.Context{Command: "   ", Cwd: "/repo"})
	require.Equal(t, evaluator.Allow, result.Decision)
}

func TestEvaluateBenignCommandAllows(t *testing.T) {
	e := newTestEvaluator(t)
	result := e.Evaluate(time.Now(), evaluator.Context{Command: "ls -la", Cwd: "/repo"})
	require.Equal(t, evaluator.Allow, result.Decision)
}

func TestEvaluateDestructiveCommandDeniesAndIssuesPendingException(t *testing.T) {
	e := newTestEvaluator(t)
	result := e.Evaluate(time.Now(), evaluator.Context{Command: "rm -rf /", Cwd: "/repo"})
	require.Equal(t, evaluator.Deny, result.Decision)
	require.Equal(t, packs.SeverityCritical, result.Severity)
	require.NotNil(t, result.PendingRecord)
	require.NotEmpty(t, result.PendingRecord.ShortCode)
}

func TestEvaluateSafeCarveOutAllows(t *testing.T) {
	e := newTestEvaluator(t)
	result := e.Evaluate(time.Now(), evaluator.Context{Command: "rm -rf /tmp/scratch", Cwd: "/repo"})
	require.Equal(t, evaluator.Allow, result.Decision)
}

func TestEvaluateAllowlistOverrideShortCircuitsToAllow(t *testing.T) {
	e := newTestEvaluator(t)
	require.NoError(t, e.Allowlist.System.Add("core.filesystem:rm-rf-root-fs", "", "", "operator accepted the risk"))

	result := e.Evaluate(time.Now(), evaluator.Context{Command: "rm -rf /", Cwd: "/repo"})
	require.Equal(t, evaluator.Allow, result.Decision)
	require.Equal(t, allowlist.LayerSystem, result.AllowedByLayer)
}

func TestEvaluateRespectsDecisionModeOverride(t *testing.T) {
	e := newTestEvaluator(t)
	e.DecisionModes = map[packs.Severity]packs.DecisionMode{
		packs.SeverityCritical: packs.ModeWarn,
	}
	result := e.Evaluate(time.Now(), evaluator.Context{Command: "rm -rf /", Cwd: "/repo"})
	require.Equal(t, evaluator.Warn, result.Decision)
}

func TestEvaluateZeroBudgetAlwaysSkips(t *testing.T) {
	e := newTestEvaluator(t)
	e.Budget = 0
	result := e.Evaluate(time.Now(), evaluator.Context{Command: "rm -rf /", Cwd: "/repo"})
	require.Equal(t, evaluator.Allow, result.Decision)
	require.True(t, result.SkippedDueToBudget)
}

func TestEvaluateExpiredBudgetAllowsWithoutRunningPacks(t *testing.T) {
	e := newTestEvaluator(t)
	e.Budget = 1 * time.Millisecond
	past := time.Now().Add(-1 * time.Hour)
	result := e.Evaluate(past, evaluator.Context{Command: "rm -rf /", Cwd: "/repo"})
	require.Equal(t, evaluator.Allow, result.Decision)
	require.True(t, result.SkippedDueToBudget)
}

func TestEvaluateHeredocMatchReportsLanguageQualifiedPackID(t *testing.T) {
	e := newTestEvaluator(t)
	// "chmod" clears the outer keyword quick-reject without itself matching
	// any filesystem pack destructive pattern, so the only match comes from
	// the embedded python -c body.
	cmd := `python3 -c "import shutil
shutil.rmtree('/var/data')" ; chmod 644 /tmp/x`
	result := e.Evaluate(time.Now(), evaluator.Context{Command: cmd, Cwd: "/repo"})
	require.Equal(t, evaluator.Deny, result.Decision)
	require.Equal(t, "heredoc.python", result.PackID)
	require.Equal(t, "heredoc.python.shutil_rmtree", result.RuleID)
}

func TestEvaluateAllowOnceRedemptionShortCircuits(t *testing.T) {
	e := newTestEvaluator(t)
	now := time.Now()

	first := e.Evaluate(now, evaluator.Context{Command: "rm -rf /", Cwd: "/repo"})
	require.Equal(t, evaluator.Deny, first.Decision)
	require.NotNil(t, first.PendingRecord)

	_, err := e.AllowOnce.Redeem(now, e.Pending, first.PendingRecord, pending.ScopeCwd, "/repo", true)
	require.NoError(t, err)

	second := e.Evaluate(now, evaluator.Context{Command: "rm -rf /", Cwd: "/repo"})
	require.Equal(t, evaluator.Allow, second.Decision)
	require.Equal(t, allowlist.Layer("allow_once"), second.AllowedByLayer)
}
