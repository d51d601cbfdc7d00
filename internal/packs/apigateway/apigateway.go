// Package apigateway registers the tier-8 API gateway and load balancer packs.
package apigateway

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

// Kong registers apigateway.kong.
func Kong() *packs.Pack {
	return &packs.Pack{
		ID:          "apigateway.kong",
		Name:        "Kong",
		Description: "Destructive Kong Admin API calls issued via curl/deck",
		Tier:        packs.TierAPIGateway,
		Keywords:    []string{"kong", "deck "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "deck-reset",
				Regex:    must(`\bdeck\s+gateway\s+reset\b`),
				Reason:   "deck gateway reset removes every entity from the Kong configuration",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "curl-delete-routes",
				Regex:    must(`\bcurl\s+.*-X\s*DELETE\b.*(routes|services|consumers)`),
				Reason:   "DELETE against Kong's Admin API removes the targeted route/service/consumer",
				Severity: packs.SeverityMedium,
			},
		},
	}
}

// AWSAPIGateway registers apigateway.aws.
func AWSAPIGateway() *packs.Pack {
	return &packs.Pack{
		ID:          "apigateway.aws",
		Name:        "AWS API Gateway",
		Description: "Deleting API Gateway REST APIs and stages",
		Tier:        packs.TierAPIGateway,
		Keywords:    []string{"aws apigateway", "aws apigatewayv2"},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "delete-rest-api",
				Regex:    must(`\baws\s+apigateway(v2)?\s+delete-rest-api\b`),
				Reason:   "deleting a REST API removes every stage, resource, and deployed method",
				Severity: packs.SeverityHigh,
			},
		},
	}
}

// ELB registers loadbalancer.elb.
func ELB() *packs.Pack {
	return &packs.Pack{
		ID:          "loadbalancer.elb",
		Name:        "AWS Elastic Load Balancer",
		Description: "Deleting load balancers and target groups",
		Tier:        packs.TierAPIGateway,
		Keywords:    []string{"aws elb", "aws elbv2"},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "delete-load-balancer",
				Regex:    must(`\baws\s+elbv?2?\s+delete-load-balancer\b`),
				Reason:   "deleting a load balancer immediately stops routing traffic to every registered target",
				Severity: packs.SeverityHigh,
			},
		},
	}
}
