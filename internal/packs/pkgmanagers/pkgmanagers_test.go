package pkgmanagers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/pkgmanagers"
)

func TestAptRemoveIsMedium(t *testing.T) {
	p := pkgmanagers.Apt()
	m, err := p.Check("apt-get remove libssl-dev")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityMedium, m.Severity)
}

func TestAptInstallNoMatch(t *testing.T) {
	p := pkgmanagers.Apt()
	m, err := p.Check("apt-get install curl")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestNpmPublishIsMedium(t *testing.T) {
	p := pkgmanagers.Npm()
	m, err := p.Check("npm publish --access public")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityMedium, m.Severity)
}

func TestNpmCacheCleanForceIsLow(t *testing.T) {
	p := pkgmanagers.Npm()
	m, err := p.Check("npm cache clean --force")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityLow, m.Severity)
}

func TestNpmInstallNoMatch(t *testing.T) {
	p := pkgmanagers.Npm()
	m, err := p.Check("npm install")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestPipUninstallYesIsLow(t *testing.T) {
	p := pkgmanagers.Pip()
	m, err := p.Check("pip uninstall requests -y")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityLow, m.Severity)
}

func TestPipUninstallWithoutYesPromptsInsteadOfMatching(t *testing.T) {
	p := pkgmanagers.Pip()
	m, err := p.Check("pip uninstall requests")
	require.NoError(t, err)
	require.Nil(t, m)
}
