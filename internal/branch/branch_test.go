package branch_test

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/branch"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available in test environment")
	}
}

func initRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run(), "git %v", args)
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	run("commit", "--allow-empty", "-q", "-m", "init")
}

func TestCurrentReturnsBranchName(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	got := branch.Current(dir)
	require.NotEmpty(t, got)
	require.NotEqual(t, "HEAD", got)
}

func TestCurrentReturnsEmptyForNonRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.Equal(t, "", branch.Current(dir))
}

func TestCurrentReturnsEmptyForDetachedHead(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	cmd := exec.Command("git", "checkout", "-q", "--detach", "HEAD")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	require.Equal(t, "", branch.Current(dir))
}
