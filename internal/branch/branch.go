// Package branch detects the active git branch for a working directory so
// the evaluator can resolve BranchContext allowlist entries. It shells out
// to the git binary rather than parsing .git/HEAD directly, since that's
// the one approach that's correct across worktrees, detached HEAD, and
// submodules without reimplementing git's own ref resolution.
package branch

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds how long git may run before Current gives up and
// returns an empty branch (fail open: no BranchContext entry will match,
// same as not being on a branch at all).
const DefaultTimeout = 200 * time.Millisecond

// Current returns the active branch name for cwd, or "" if cwd isn't a git
// repository, is in a detached-HEAD state, or git can't be run in time.
// Never returns an error: an unknown branch is exactly equivalent to "no
// BranchContext entry matches", which is the safe default.
func Current(cwd string) string {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	branch := strings.TrimSpace(string(out))
	if branch == "HEAD" {
		// Detached HEAD: rev-parse returns the literal string "HEAD".
		return ""
	}
	return branch
}
