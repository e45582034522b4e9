package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
)

// policyService implements models.PolicyService over a static allow/deny list.
type policyService struct {
	policy models.ToolPolicy
}

// NewPolicyService creates a new PolicyService instance
func NewPolicyService(policy models.ToolPolicy) models.PolicyService {
	return &policyService{policy: policy}
}

// CheckTool validates if a tool is allowed to be used
func (p *policyService) CheckTool(ctx context.Context, toolName string, args map[string]any) error {
	if toolName == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if slices.Contains(p.policy.Deny, toolName) {
		return fmt.Errorf("tool %q is denied by policy", toolName)
	}
	if len(p.policy.Allow) > 0 && !slices.Contains(p.policy.Allow, toolName) {
		return fmt.Errorf("tool %q is not in the allowed tool list", toolName)
	}
	return nil
}
