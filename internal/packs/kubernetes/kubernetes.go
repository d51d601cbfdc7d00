// Package kubernetes registers the tier-5 kubectl/helm packs.
package kubernetes

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

// Kubectl registers kubernetes.kubectl.
func Kubectl() *packs.Pack {
	return &packs.Pack{
		ID:          "kubernetes.kubectl",
		Name:        "kubectl",
		Description: "Namespace, cluster-wide, and resource deletion via kubectl",
		Tier:        packs.TierKubernetes,
		Keywords:    []string{"kubectl "},
		Safe: []packs.SafePattern{
			{Name: "delete-dry-run", Regex: must(`\bkubectl\s+delete\s+.*--dry-run\b`)},
			{Name: "get", Regex: must(`\bkubectl\s+get\b`)},
			{Name: "describe", Regex: must(`\bkubectl\s+describe\b`)},
			{Name: "logs", Regex: must(`\bkubectl\s+logs\b`)},
		},
		Destructive: []packs.DestructivePattern{
			{
				Name:        "delete-namespace",
				Regex:       must(`\bkubectl\s+delete\s+(namespace|ns)\b`),
				Reason:      "deleting a namespace cascades to delete every resource inside it",
				Severity:    packs.SeverityHigh,
				Explanation: "Namespace deletion is asynchronous and generally not undoable once finalizers complete.",
			},
			{
				Name:     "delete-all-namespaces",
				Regex:    must(`\bkubectl\s+delete\s+.*--all\s+.*--all-namespaces\b`),
				Reason:   "deleting all resources across all namespaces is a cluster-wide wipe",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "delete-all-cluster-wide",
				Regex:    must(`\bkubectl\s+delete\s+.*-A\s+.*--all\b`),
				Reason:   "deleting all resources cluster-wide",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "delete-pvc",
				Regex:    must(`\bkubectl\s+delete\s+(pvc|persistentvolumeclaim)\b`),
				Reason:   "deleting a PersistentVolumeClaim can release or reclaim the backing storage volume",
				Severity: packs.SeverityHigh,
			},
			{
				Name:     "delete-crd",
				Regex:    must(`\bkubectl\s+delete\s+(crd|customresourcedefinition)\b`),
				Reason:   "deleting a CustomResourceDefinition removes every custom resource instance of that kind",
				Severity: packs.SeverityHigh,
			},
		},
	}
}

// Helm registers kubernetes.helm.
func Helm() *packs.Pack {
	return &packs.Pack{
		ID:          "kubernetes.helm",
		Name:        "Helm",
		Description: "Helm release removal",
		Tier:        packs.TierKubernetes,
		Keywords:    []string{"helm "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "uninstall",
				Regex:    must(`\bhelm\s+(uninstall|delete)\b`),
				Reason:   "helm uninstall removes every resource a release manages",
				Severity: packs.SeverityHigh,
			},
			{
				Name:     "uninstall-no-hooks",
				Regex:    must(`\bhelm\s+(uninstall|delete)\s+.*--no-hooks\b`),
				Reason:   "uninstalling without hooks skips any pre-delete backup or cleanup logic the chart defines",
				Severity: packs.SeverityCritical,
			},
		},
	}
}
