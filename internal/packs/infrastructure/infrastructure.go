// Package infrastructure registers the tier-3 infrastructure-as-code packs.
package infrastructure

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

// Terraform registers infrastructure.terraform.
func Terraform() *packs.Pack {
	return &packs.Pack{
		ID:          "infrastructure.terraform",
		Name:        "Terraform",
		Description: "Terraform/OpenTofu/Pulumi state-destroying operations",
		Tier:        packs.TierInfrastructure,
		Keywords:    []string{"terraform", "tofu", "pulumi"},
		Safe: []packs.SafePattern{
			{Name: "plan", Regex: must(`\b(terraform|tofu)\s+plan\b`)},
			{Name: "plan-destroy-dryrun", Regex: must(`\b(terraform|tofu)\s+plan\s+.*-destroy\b`)},
		},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "destroy",
				Regex:    must(`\b(terraform|tofu)\s+destroy\b`),
				Reason:   "terraform destroy tears down every resource it manages",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "apply-destroy",
				Regex:    must(`\b(terraform|tofu)\s+apply\s+.*-destroy\b`),
				Reason:   "terraform apply -destroy tears down resources outside the usual destroy workflow",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "pulumi-destroy",
				Regex:    must(`\bpulumi\s+destroy\b`),
				Reason:   "pulumi destroy tears down every resource in the stack",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "state-rm",
				Regex:    must(`\bterraform\s+state\s+rm\b`),
				Reason:   "terraform state rm detaches a resource from management without destroying it, risking drift",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "force-unlock",
				Regex:    must(`\bterraform\s+force-unlock\b`),
				Reason:   "force-unlock bypasses the state lock another operation may still hold",
				Severity: packs.SeverityMedium,
			},
		},
	}
}

// Ansible registers infrastructure.ansible.
func Ansible() *packs.Pack {
	return &packs.Pack{
		ID:          "infrastructure.ansible",
		Name:        "Ansible",
		Description: "Ansible playbook runs targeting production-shaped inventories",
		Tier:        packs.TierInfrastructure,
		Keywords:    []string{"ansible-playbook", "ansible "},
		Safe: []packs.SafePattern{
			{Name: "check-mode", Regex: must(`\bansible-playbook\s+.*--check\b`)},
		},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "playbook-prod-limit",
				Regex:    must(`\bansible-playbook\s+.*--limit[= ]\S*prod\S*`),
				Reason:   "running a playbook scoped to a production inventory group without a check-mode dry run",
				Severity: packs.SeverityMedium,
			},
			{
				Name:     "ansible-become-root",
				Regex:    must(`\bansible(-playbook)?\s+.*--become\b.*--become-user[= ]root\b`),
				Reason:   "ansible run escalating to root on the target inventory",
				Severity: packs.SeverityMedium,
			},
		},
	}
}
