// Package containers registers the tier-6 docker/compose packs.
package containers

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

// Docker registers containers.docker.
func Docker() *packs.Pack {
	return &packs.Pack{
		ID:          "containers.docker",
		Name:        "Docker",
		Description: "Bulk container/image/volume removal",
		Tier:        packs.TierContainers,
		Keywords:    []string{"docker "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "system-prune-all",
				Regex:    must(`\bdocker\s+system\s+prune\s+.*(-a|--all)\b`),
				Reason:   "docker system prune --all removes every unused image, container, network, and build cache entry",
				Severity: packs.SeverityHigh,
			},
			{
				Name:     "force-remove",
				Regex:    must(`\bdocker\s+(rm|rmi|volume\s+rm|network\s+rm)\s+.*-f\b`),
				Reason:   "force-removing containers/images/volumes skips the usual in-use safety check",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "remove-all-substitution",
				Regex:    must(`\bdocker\s+(rm|rmi)\s+.*\$\(docker\s+(ps|images)`),
				Reason:   "removing every container or image returned by a subshell listing is a bulk-destructive pattern",
				Severity: packs.SeverityHigh,
			},
			{
				Name:     "volume-prune-force",
				Regex:    must(`\bdocker\s+volume\s+prune\s+.*-f\b`),
				Reason:   "docker volume prune -f deletes every unused volume, including any that still hold data not referenced by a running container",
				Severity: packs.SeverityHigh,
			},
		},
	}
}

// Compose registers containers.compose.
func Compose() *packs.Pack {
	return &packs.Pack{
		ID:          "containers.compose",
		Name:        "Docker Compose",
		Description: "Compose teardown that also removes volumes",
		Tier:        packs.TierContainers,
		Keywords:    []string{"docker-compose", "docker compose"},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "down-volumes",
				Regex:    must(`\bdocker[- ]compose\s+down\s+.*-v\b`),
				Reason:   "compose down -v removes the named volumes the stack defined, deleting their data",
				Severity: packs.SeverityHigh,
			},
		},
	}
}
