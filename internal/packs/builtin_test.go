package packs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/apigateway"
	"github.com/agentguard/dcg/internal/packs/cloud"
	"github.com/agentguard/dcg/internal/packs/containers"
	"github.com/agentguard/dcg/internal/packs/core"
	"github.com/agentguard/dcg/internal/packs/database"
	"github.com/agentguard/dcg/internal/packs/infrastructure"
	"github.com/agentguard/dcg/internal/packs/kubernetes"
	"github.com/agentguard/dcg/internal/packs/pkgmanagers"
	"github.com/agentguard/dcg/internal/packs/strict"
)

// allBuiltins mirrors cmd/dcg/root.go's bootstrap() registration list, so
// this test catches a duplicate rule_id or pattern name across the full
// built-in catalog — the kind of collision a single domain package's own
// tests can't see.
var allBuiltins = []packs.BuiltinLoader{
	core.Git, core.Filesystem,
	infrastructure.Terraform, infrastructure.Ansible,
	cloud.AWS, cloud.GCP, cloud.Azure,
	kubernetes.Kubectl, kubernetes.Helm,
	containers.Docker, containers.Compose,
	database.PostgreSQL, database.MySQL, database.SQLite, database.MongoDB, database.Redis,
	apigateway.Kong, apigateway.AWSAPIGateway, apigateway.ELB,
	pkgmanagers.Apt, pkgmanagers.Npm, pkgmanagers.Pip,
	strict.HookBypass, strict.PrivEsc,
}

func TestNewBuiltinRegistryRegistersEveryPackWithoutCollision(t *testing.T) {
	var reg *packs.PackRegistry
	require.NotPanics(t, func() {
		reg = packs.NewBuiltinRegistry(allBuiltins...)
	})
	require.Equal(t, len(allBuiltins), reg.Len())
}

func TestBuiltinRegistryOrderingIsStable(t *testing.T) {
	regA := packs.NewBuiltinRegistry(allBuiltins...)
	regB := packs.NewBuiltinRegistry(allBuiltins...)

	orderedA, orderedB := regA.Ordered(), regB.Ordered()
	require.Len(t, orderedA, len(orderedB))
	for i := range orderedA {
		require.Equal(t, orderedA[i].ID, orderedB[i].ID)
	}
}

func TestStrictTierSortsAfterEveryOtherTier(t *testing.T) {
	reg := packs.NewBuiltinRegistry(allBuiltins...)
	ordered := reg.Ordered()
	seenStrict := false
	for _, p := range ordered {
		if p.Tier == packs.TierStrict {
			seenStrict = true
			continue
		}
		require.False(t, seenStrict, "pack %q from a non-strict tier sorted after a strict-tier pack", p.ID)
	}
}
