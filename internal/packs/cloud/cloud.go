// Package cloud registers the tier-4 cloud-provider CLI packs.
package cloud

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

// AWS registers cloud.aws.
func AWS() *packs.Pack {
	return &packs.Pack{
		ID:          "cloud.aws",
		Name:        "AWS CLI",
		Description: "Destructive AWS resource operations",
		Tier:        packs.TierCloud,
		Keywords:    []string{"aws "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "s3-rm-recursive",
				Regex:    must(`\baws\s+s3\s+rm\s+.*--recursive\b`),
				Reason:   "aws s3 rm --recursive deletes every object under the given prefix",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "s3-rb-force",
				Regex:    must(`\baws\s+s3\s+rb\s+.*--force\b`),
				Reason:   "aws s3 rb --force deletes a bucket along with all of its objects",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "ec2-terminate",
				Regex:    must(`\baws\s+ec2\s+terminate-instances\b`),
				Reason:   "terminating an EC2 instance destroys its attached instance-store data",
				Severity: packs.SeverityHigh,
			},
			{
				Name:     "rds-delete-instance",
				Regex:    must(`\baws\s+rds\s+delete-db-instance\b`),
				Reason:   "deleting an RDS instance destroys its data unless a final snapshot is requested",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "rds-delete-cluster",
				Regex:    must(`\baws\s+rds\s+delete-db-cluster\b`),
				Reason:   "deleting an RDS cluster destroys its data unless a final snapshot is requested",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "cloudformation-delete-stack",
				Regex:    must(`\baws\s+cloudformation\s+delete-stack\b`),
				Reason:   "deleting a CloudFormation stack tears down every resource it manages",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "iam-delete-user",
				Regex:    must(`\baws\s+iam\s+delete-user\b`),
				Reason:   "deleting an IAM user immediately revokes its credentials and attached policies",
				Severity: packs.SeverityHigh,
			},
		},
	}
}

// GCP registers cloud.gcp.
func GCP() *packs.Pack {
	return &packs.Pack{
		ID:          "cloud.gcp",
		Name:        "Google Cloud CLI",
		Description: "Destructive gcloud/gsutil operations",
		Tier:        packs.TierCloud,
		Keywords:    []string{"gcloud ", "gsutil "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "gcloud-delete",
				Regex:    must(`\bgcloud\s+\S+(\s+\S+)*\s+delete\b`),
				Reason:   "gcloud delete removes the targeted resource",
				Severity: packs.SeverityHigh,
			},
			{
				Name:     "gsutil-rm-recursive",
				Regex:    must(`\bgsutil\s+rm\s+.*-r\b`),
				Reason:   "gsutil rm -r recursively deletes every object under the given path",
				Severity: packs.SeverityCritical,
			},
		},
	}
}

// Azure registers cloud.azure.
func Azure() *packs.Pack {
	return &packs.Pack{
		ID:          "cloud.azure",
		Name:        "Azure CLI",
		Description: "Destructive az operations",
		Tier:        packs.TierCloud,
		Keywords:    []string{"az "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "group-delete",
				Regex:    must(`\baz\s+group\s+delete\b`),
				Reason:   "az group delete removes a resource group and every resource inside it",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "delete-generic",
				Regex:    must(`\baz\s+\S+(\s+\S+)*\s+delete\b`),
				Reason:   "az delete removes the targeted resource",
				Severity: packs.SeverityHigh,
			},
		},
	}
}
