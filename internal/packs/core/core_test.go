package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/core"
)

func TestGitForcePushMatchesCritical(t *testing.T) {
	p := core.Git()
	m, err := p.Check("git push --force origin main")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityCritical, m.Severity)
}

func TestGitCheckoutNewBranchAbstains(t *testing.T) {
	p := core.Git()
	m, err := p.Check("git checkout -b feature/x")
	require.NoError(t, err)
	require.Nil(t, m, "creating a new branch is a safe carve-out, not a reset/checkout-of-path")
}

func TestGitResetHardIsCriticalButPlainResetIsMedium(t *testing.T) {
	p := core.Git()

	hard, err := p.Check("git reset --hard HEAD~1")
	require.NoError(t, err)
	require.NotNil(t, hard)
	require.Equal(t, packs.SeverityCritical, hard.Severity)

	soft, err := p.Check("git reset HEAD~1")
	require.NoError(t, err)
	require.NotNil(t, soft)
	require.Equal(t, packs.SeverityMedium, soft.Severity)
}

func TestFilesystemRmRfTmpIsSafeCarveOut(t *testing.T) {
	p := core.Filesystem()
	m, err := p.Check("rm -rf /tmp/build-cache")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestFilesystemMkfsIsCritical(t *testing.T) {
	p := core.Filesystem()
	m, err := p.Check("mkfs.ext4 /dev/sdb1")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityCritical, m.Severity)
}

func TestFilesystemUnrelatedCommandNoMatch(t *testing.T) {
	p := core.Filesystem()
	m, err := p.Check("ls -la /tmp")
	require.NoError(t, err)
	require.Nil(t, m)
}
