// Package strict registers tier-10 packs: hook-bypass detection and
// privilege escalation. These are opt-in, stricter-than-default packs a
// project can enable when it wants to catch agents routing around its own
// safety tooling rather than just around the host filesystem.
package strict

import (
	"github.com/dlclark/regexp2"

	"github.com/agentguard/dcg/internal/packs"
)

func must(src string) *regexp2.Regexp {
	re, err := packs.CompilePattern(src)
	if err != nil {
		panic(err)
	}
	return re
}

// HookBypass registers strict.hookbypass: environment variables and git
// flags that skip pre-commit hooks or CI checks. Recovered from the
// original implementation's design intent (guarding destructive commands
// includes guarding the guards) though dropped from the distilled
// specification.
func HookBypass() *packs.Pack {
	return &packs.Pack{
		ID:          "strict.hookbypass",
		Name:        "Hook Bypass Detection",
		Description: "Environment variables and flags that skip pre-commit/CI checks",
		Tier:        packs.TierStrict,
		Keywords:    []string{"skip_precommit", "skip_pre_commit", "skip_hook", "skip_tests", "husky", "--no-verify", "-n"},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "env-skip-checks",
				Regex:    must(`\b(SKIP_PRECOMMIT_CHECKS|SKIP_PRE_COMMIT|SKIP_HOOKS?|SKIP_TESTS)\s*=`),
				Reason:   "this environment variable is read by a hook runner to skip its own checks",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "husky-disable",
				Regex:    must(`\bHUSKY\s*=\s*0\b|\bHUSKY_SKIP_HOOKS\s*=`),
				Reason:   "disables the Husky git hook runner for this invocation",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "git-commit-no-verify",
				Regex:    must(`\bgit\s+.*commit\s+.*--no-verify\b`),
				Reason:   "git commit --no-verify skips the repository's pre-commit and commit-msg hooks",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "git-push-no-verify",
				Regex:    must(`\bgit\s+.*push\s+.*--no-verify\b`),
				Reason:   "git push --no-verify skips the repository's pre-push hook",
				Severity: packs.SeverityMedium,
			},
		},
	}
}

// PrivEsc registers strict.privesc.
func PrivEsc() *packs.Pack {
	return &packs.Pack{
		ID:          "strict.privesc",
		Name:        "Privilege Escalation",
		Description: "sudo and root-shell invocations",
		Tier:        packs.TierStrict,
		Keywords:    []string{"sudo", "su -", "doas"},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "sudo",
				Regex:    must(`\bsudo\b`),
				Reason:   "sudo runs the remainder of the command with root privileges",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "su-root-shell",
				Regex:    must(`\bsu\s+(-|--login)?\s*root\b|\bsu\s+-\s*$`),
				Reason:   "su opens a root-privileged shell",
				Severity: packs.SeverityMedium,
			},
		},
	}
}
