package apigateway_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/apigateway"
)

func TestKongDeckGatewayResetIsCritical(t *testing.T) {
	p := apigateway.Kong()
	m, err := p.Check("deck gateway reset --yes")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityCritical, m.Severity)
}

func TestKongCurlDeleteRouteIsMedium(t *testing.T) {
	p := apigateway.Kong()
	m, err := p.Check("curl -X DELETE http://localhost:8001/routes/my-route")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityMedium, m.Severity)
}

func TestKongDeckSyncNoMatch(t *testing.T) {
	p := apigateway.Kong()
	m, err := p.Check("deck gateway sync")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestAWSAPIGatewayDeleteRestAPIIsHigh(t *testing.T) {
	p := apigateway.AWSAPIGateway()
	m, err := p.Check("aws apigateway delete-rest-api --rest-api-id abc123")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityHigh, m.Severity)
}

func TestELBDeleteLoadBalancerIsHigh(t *testing.T) {
	p := apigateway.ELB()
	m, err := p.Check("aws elbv2 delete-load-balancer --load-balancer-arn arn:aws:elasticloadbalancing:...")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, packs.SeverityHigh, m.Severity)
}

func TestELBDescribeNoMatch(t *testing.T) {
	p := apigateway.ELB()
	m, err := p.Check("aws elbv2 describe-load-balancers")
	require.NoError(t, err)
	require.Nil(t, m)
}
