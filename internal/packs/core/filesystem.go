package core

import (
	"github.com/agentguard/dcg/internal/packs"
)

// Filesystem registers core.filesystem: recursive-delete and disk-level
// destruction, including the explicit /tmp carve-out the scenario table
// relies on (rm -rf under /tmp abstains; rm -rf ~ or a system directory
// denies).
func Filesystem() *packs.Pack {
	return &packs.Pack{
		ID:          "core.filesystem",
		Name:        "Filesystem",
		Description: "Recursive deletion and disk-level destruction",
		Tier:        packs.TierCore,
		Keywords:    []string{"rm ", "dd ", "mkfs", "fdisk", "parted", "shutdown", "reboot", "chmod", "chown"},
		Safe: []packs.SafePattern{
			{Name: "rm-rf-tmp", Regex: must(`\brm\s+.*-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*\s+/tmp(/|\s|$)`)},
			{Name: "rm-rf-tmp-reversed", Regex: must(`\brm\s+.*-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*\s+/tmp(/|\s|$)`)},
			{Name: "dd-to-devnull", Regex: must(`\bdd\s+.*of\s*=\s*/dev/null\b`)},
		},
		Destructive: []packs.DestructivePattern{
			{
				Name:        "rm-rf-root-home",
				Regex:       must(`\brm\s+.*-[a-zA-Z]*[rf][a-zA-Z]*[rf]?[a-zA-Z]*\s+(~|\$HOME)(/|\s|$)`),
				Reason:      "rm -rf on the home directory permanently deletes all user files",
				Severity:    packs.SeverityCritical,
				Explanation: "There is no trash or undo for a recursive delete of the home directory.",
			},
			{
				Name:        "rm-rf-root-fs",
				Regex:       must(`\brm\s+.*-[a-zA-Z]*[rf][a-zA-Z]*[rf]?[a-zA-Z]*\s+/\s*$`),
				Reason:      "rm -rf / attempts to wipe the entire filesystem",
				Severity:    packs.SeverityCritical,
				Explanation: "Modern rm refuses this without --no-preserve-root, but agents may supply that flag unknowingly.",
			},
			{
				Name:        "rm-rf-system-dir",
				Regex:       must(`\brm\s+.*-[a-zA-Z]*[rf][a-zA-Z]*[rf]?[a-zA-Z]*\s+/(etc|var|usr|bin|sbin|lib|boot|root)\b`),
				Reason:      "rm -rf on a system directory can render the machine unbootable",
				Severity:    packs.SeverityCritical,
			},
			{
				Name:        "rm-rf-parent",
				Regex:       must(`\brm\s+.*-[a-zA-Z]*[rf][a-zA-Z]*[rf]?[a-zA-Z]*\s+\.\.(/)?`),
				Reason:      "rm -rf .. deletes the parent directory's contents, which is rarely the intent",
				Severity:    packs.SeverityHigh,
			},
			{
				Name:        "dd-disk-device",
				Regex:       must(`\bdd\s+.*of\s*=\s*/dev/(sd|hd|nvme|vd|xvd|disk)`),
				Reason:      "dd writing to a raw disk device can overwrite an entire drive",
				Severity:    packs.SeverityCritical,
			},
			{
				Name:        "mkfs",
				Regex:       must(`\bmkfs(\.\w+)?\b`),
				Reason:      "mkfs formats a filesystem, destroying any data already on it",
				Severity:    packs.SeverityCritical,
			},
			{
				Name:        "fdisk-parted",
				Regex:       must(`\b(fdisk|parted|gdisk)\b`),
				Reason:      "partition table tools can destroy data on the affected disk",
				Severity:    packs.SeverityHigh,
			},
			{
				Name:        "shutdown-reboot",
				Regex:       must(`\b(shutdown|reboot|halt|poweroff)\b`),
				Reason:      "this command powers off or restarts the host, terminating any in-flight work",
				Severity:    packs.SeverityHigh,
			},
			{
				Name:        "chmod-recursive-system",
				Regex:       must(`\bchmod\s+.*-[rR]\S*\s+/(etc|var|usr|bin|sbin|lib|boot|root)\b`),
				Reason:      "recursive chmod on a system directory can break privilege boundaries host-wide",
				Severity:    packs.SeverityHigh,
			},
			{
				Name:        "chown-recursive-system",
				Regex:       must(`\bchown\s+.*-[rR]\S*\s+/(etc|var|usr|bin|sbin|lib|boot|root)\b`),
				Reason:      "recursive chown on a system directory can break privilege boundaries host-wide",
				Severity:    packs.SeverityHigh,
			},
		},
	}
}
