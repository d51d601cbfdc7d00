// Package pkgmanagers registers the tier-9 package manager packs.
package pkgmanagers

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

// Apt registers pkgmanagers.apt.
func Apt() *packs.Pack {
	return &packs.Pack{
		ID:          "pkgmanagers.apt",
		Name:        "APT",
		Description: "System package removal via apt/dpkg",
		Tier:        packs.TierPackageManagers,
		Keywords:    []string{"apt ", "apt-get ", "dpkg "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "remove-purge",
				Regex:    must(`\bapt(-get)?\s+(remove|purge)\b`),
				Reason:   "removing/purging a package can strip dependencies other installed packages need",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "autoremove-purge",
				Regex:    must(`\bapt(-get)?\s+autoremove\s+.*--purge\b`),
				Reason:   "autoremove --purge also deletes configuration files for every removed package",
				Severity: packs.SeverityMedium,
			},
		},
	}
}

// Npm registers pkgmanagers.npm.
func Npm() *packs.Pack {
	return &packs.Pack{
		ID:          "pkgmanagers.npm",
		Name:        "npm",
		Description: "Global/forced npm operations",
		Tier:        packs.TierPackageManagers,
		Keywords:    []string{"npm "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "npm-cache-clean-force",
				Regex:    must(`\bnpm\s+cache\s+clean\s+.*--force\b`),
				Reason:   "npm cache clean --force discards the local package cache, slowing every subsequent install",
				Severity: packs.SeverityLow,
			},
			{
				Name:     "npm-publish",
				Regex:    must(`\bnpm\s+publish\b`),
				Reason:   "npm publish releases a package version that cannot be fully retracted once downloaded",
				Severity: packs.SeverityMedium,
			},
		},
	}
}

// Pip registers pkgmanagers.pip.
func Pip() *packs.Pack {
	return &packs.Pack{
		ID:          "pkgmanagers.pip",
		Name:        "pip",
		Description: "System-wide pip uninstalls",
		Tier:        packs.TierPackageManagers,
		Keywords:    []string{"pip "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "uninstall-yes",
				Regex:    must(`\bpip3?\s+uninstall\s+.*-y\b`),
				Reason:   "pip uninstall -y removes the package without a confirmation prompt",
				Severity: packs.SeverityLow,
			},
		},
	}
}
