package infrastructure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/infrastructure"
)

func TestTerraformDestroyIsCritical(t *testing.T) {
	p := infrastructure.Terraform()
	m, err := p.Check("terraform destroy -auto-approve")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityCritical, m.Severity)
}

func TestTerraformPlanIsSafeCarveOut(t *testing.T) {
	p := infrastructure.Terraform()
	m, err := p.Check("terraform plan -out=tfplan")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestTerraformStateRmIsMedium(t *testing.T) {
	p := infrastructure.Terraform()
	m, err := p.Check("terraform state rm aws_instance.web")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityMedium, m.Severity)
}

func TestAnsiblePlaybookProdLimitWithoutCheckIsMedium(t *testing.T) {
	p := infrastructure.Ansible()
	m, err := p.Check("ansible-playbook site.yml --limit=prod-web")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityMedium, m.Severity)
}

func TestAnsiblePlaybookCheckModeAbstains(t *testing.T) {
	p := infrastructure.Ansible()
	m, err := p.Check("ansible-playbook site.yml --limit=prod-web --check")
	require.NoError(t, err)
	require.Nil(t, m)
}
