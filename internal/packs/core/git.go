// Package core registers the tier-1 built-in packs: git and filesystem.
// These are the packs every other tier's rules are reviewed against for
// overlap, so their rule_ids are kept stable across releases.
package core

import (
	"github.com/dlclark/regexp2"

	"github.com/agentguard/dcg/internal/packs"
)

// Git registers core.git: the catalog of destructive git invocations, with
// safe carve-outs evaluated first so deliberate, non-destructive uses of an
// otherwise-watched verb (branch creation via "checkout -b", "reset" used
// read-only, etc.) abstain rather than deny.
func Git() *packs.Pack {
	return &packs.Pack{
		ID:          "core.git",
		Name:        "Git",
		Description: "Destructive git history/worktree operations",
		Tier:        packs.TierCore,
		Keywords:    []string{"git"},
		Safe: []packs.SafePattern{
			{Name: "checkout-new-branch", Regex: must(`\bgit\s+checkout\s+(-b|-B)\s+\S+`)},
			{Name: "switch-new-branch", Regex: must(`\bgit\s+switch\s+(-c|-C)\s+\S+`)},
			{Name: "branch-list", Regex: must(`\bgit\s+branch\s*(-[a-zA-Z]*[avrl][a-zA-Z]*)?\s*$`)},
			{Name: "branch-safe-delete", Regex: must(`\bgit\s+branch\s+-d\b`)},
			{Name: "remote-list", Regex: must(`\bgit\s+remote\s*(-v)?\s*$`)},
			{Name: "tag-list", Regex: must(`\bgit\s+tag\s*(-l|--list)?\s*$`)},
			{Name: "stash-list", Regex: must(`\bgit\s+stash\s+list\b`)},
			{Name: "rm-cached", Regex: must(`\bgit\s+rm\b.*--cached`)},
		},
		Destructive: []packs.DestructivePattern{
			{
				Name:        "reset-hard",
				Regex:       must(`\bgit\s+reset\s+.*--hard\b`),
				Reason:      "git reset --hard discards uncommitted changes and moves HEAD, permanently losing work",
				Severity:    packs.SeverityCritical,
				Explanation: "Any uncommitted modifications in the working tree and index are discarded with no recovery path.",
			},
			{
				Name:        "reset-any",
				Regex:       must(`\bgit\s+reset\b`),
				Reason:      "git reset can unstage or move HEAD, discarding staged changes",
				Severity:    packs.SeverityMedium,
				Explanation: "Non---hard resets still rewrite the index and can surprise an agent relying on staged state.",
			},
			{
				Name:        "restore",
				Regex:       must(`\bgit\s+restore\b`),
				Reason:      "git restore discards working-tree or staged changes",
				Severity:    packs.SeverityHigh,
				Explanation: "Restoring a path from HEAD or the index overwrites local edits with no prompt.",
			},
			{
				Name:        "clean-force",
				Regex:       must(`\bgit\s+clean\s+.*-[a-zA-Z]*f[a-zA-Z]*d?\b`),
				Reason:      "git clean -f permanently deletes untracked files",
				Severity:    packs.SeverityCritical,
				Explanation: "Untracked files and, with -d, untracked directories are removed without passing through the index or a safety net.",
			},
			{
				Name:        "push-force-long",
				Regex:       must(`\bgit\s+push\s+.*--force\b`),
				Reason:      "git push --force overwrites remote history",
				Severity:    packs.SeverityCritical,
				Explanation:    "A force push can discard commits other collaborators have already pulled or built on.",
				SuggestionKind: "push-force-with-lease",
			},
			{
				Name:           "push-force-short",
				Regex:          must(`\bgit\s+push\s+.*\s-f\b`),
				Reason:         "git push -f overwrites remote history",
				Severity:       packs.SeverityCritical,
				Explanation:    "A force push can discard commits other collaborators have already pulled or built on.",
				SuggestionKind: "push-force-with-lease",
			},
			{
				Name:        "branch-force-delete",
				Regex:       must(`\bgit\s+branch\s+.*-D\b`),
				Reason:      "git branch -D force-deletes a branch even with unmerged commits",
				Severity:    packs.SeverityHigh,
				Explanation: "Unlike -d, -D does not check whether the branch's commits are reachable elsewhere.",
			},
			{
				Name:        "rm",
				Regex:       must(`\bgit\s+rm\b`),
				Reason:      "git rm removes tracked files from the working tree",
				Severity:    packs.SeverityMedium,
				Explanation: "Pass --cached to keep the file on disk while only removing it from version control.",
			},
			{
				Name:        "rebase",
				Regex:       must(`\bgit\s+rebase\b`),
				Reason:      "git rebase rewrites commit history and can lose work on conflict",
				Severity:    packs.SeverityHigh,
				Explanation: "An interrupted or mishandled rebase can leave the repository in a detached, confusing state.",
			},
			{
				Name:        "commit-amend",
				Regex:       must(`\bgit\s+commit\s+.*--amend\b`),
				Reason:      "git commit --amend rewrites the last commit",
				Severity:    packs.SeverityMedium,
				Explanation: "Amending a commit that has already been pushed and pulled by others creates divergent history.",
			},
			{
				Name:        "filter-branch",
				Regex:       must(`\bgit\s+filter-branch\b`),
				Reason:      "git filter-branch rewrites the entire repository history",
				Severity:    packs.SeverityCritical,
				Explanation: "Every commit hash downstream of the rewrite changes, breaking every existing clone's history.",
			},
			{
				Name:        "filter-repo",
				Regex:       must(`\bgit\s+filter-repo\b`),
				Reason:      "git filter-repo rewrites the entire repository history",
				Severity:    packs.SeverityCritical,
				Explanation: "Every commit hash downstream of the rewrite changes, breaking every existing clone's history.",
			},
			{
				Name:        "reflog-expire",
				Regex:       must(`\bgit\s+reflog\s+(expire|delete)\b`),
				Reason:      "git reflog expire/delete removes the safety net for recovering lost commits",
				Severity:    packs.SeverityHigh,
				Explanation: "Once reflog entries are expired, dangling commits become unreachable by git gc.",
			},
			{
				Name:        "gc-prune",
				Regex:       must(`\bgit\s+gc\s+.*--prune\b`),
				Reason:      "git gc --prune permanently removes unreachable objects",
				Severity:    packs.SeverityHigh,
				Explanation: "Any commit only reachable via the reflog's safety net is deleted once pruned.",
			},
			{
				Name:        "checkout",
				Regex:       must(`\bgit\s+checkout\b`),
				Reason:      "git checkout can discard working-tree changes when given a path",
				Severity:    packs.SeverityMedium,
				Explanation: "git checkout -- <path> silently overwrites local edits with the committed version.",
			},
			{
				Name:        "switch",
				Regex:       must(`\bgit\s+switch\b`),
				Reason:      "git switch changes branches and can discard conflicting local state",
				Severity:    packs.SeverityLow,
			},
			{
				Name:        "stash-destructive",
				Regex:       must(`\bgit\s+stash\s+(drop|clear|pop)\b`),
				Reason:      "git stash drop/clear/pop can permanently discard stashed work",
				Severity:    packs.SeverityMedium,
				Explanation: "A conflicted pop or an explicit drop/clear removes stash entries with no further recovery path.",
			},
			{
				Name:        "worktree-remove-force",
				Regex:       must(`\bgit\s+worktree\s+remove\s+.*(-f|--force)\b`),
				Reason:      "git worktree remove --force deletes a worktree even with uncommitted changes",
				Severity:    packs.SeverityHigh,
			},
			{
				Name:        "submodule-deinit-force",
				Regex:       must(`\bgit\s+submodule\s+deinit\s+.*(-f|--force)\b`),
				Reason:      "git submodule deinit --force removes a submodule's working directory",
				Severity:    packs.SeverityHigh,
			},
			{
				Name:        "update-ref-delete",
				Regex:       must(`\bgit\s+update-ref\s+.*(-d|--delete)\b`),
				Reason:      "git update-ref -d can delete refs including HEAD",
				Severity:    packs.SeverityHigh,
			},
			{
				Name:        "config-global",
				Regex:       must(`\bgit\s+config\s+.*--global\b`),
				Reason:      "git config --global mutates machine-wide git configuration",
				Severity:    packs.SeverityLow,
			},
		},
	}
}

func must(src string) *regexp2.Regexp {
	re, err := packs.CompilePattern(src)
	if err != nil {
		panic(err)
	}
	return re
}
