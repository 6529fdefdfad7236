package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
// ops 负责履约操作，finance 负责资金操作，super 拥有全部权限。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     "ops",
			Inherits: []string{"readonly"},
			Policies: []Policy{
				{Object: "/admin/merchants", Action: "*"},
				{Object: "/admin/merchants/:id/status", Action: "*"},
				{Object: "/admin/orders", Action: "*"},
				{Object: "/admin/orders/:id/transition", Action: "*"},
				{Object: "/admin/orders/:id/verify", Action: "*"},
				{Object: "/admin/allocation-orders", Action: "*"},
				{Object: "/admin/allocation-orders/:id/commit", Action: "*"},
				{Object: "/admin/allocation-orders/:id/close", Action: "*"},
				{Object: "/admin/allocation-orders/:id/reopen", Action: "*"},
				{Object: "/admin/allocation-orders/:id/cancel", Action: "*"},
				{Object: "/admin/work-orders", Action: "*"},
				{Object: "/admin/work-orders/:id/assign", Action: "*"},
				{Object: "/admin/work-orders/:id/start", Action: "*"},
				{Object: "/admin/work-orders/:id/complete", Action: "*"},
				{Object: "/admin/work-orders/:id/cancel", Action: "*"},
				{Object: "/admin/logistics-orders", Action: "*"},
				{Object: "/admin/logistics-orders/:id/milestones", Action: "*"},
				{Object: "/admin/payment-records", Action: "POST"},
			},
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly"},
			Policies: []Policy{
				{Object: "/admin/payment-records", Action: "*"},
				{Object: "/admin/payment-records/:id/refund", Action: "*"},
				{Object: "/admin/payment-records/:id/refund/confirm", Action: "*"},
				{Object: "/admin/reconciliation-issues/:id/resolve", Action: "*"},
				{Object: "/admin/logistics-orders/:id/fee/paid", Action: "*"},
				{Object: "/admin/settlements", Action: "*"},
				{Object: "/admin/settlements/generate", Action: "*"},
				{Object: "/admin/settlements/:id/settle", Action: "*"},
				{Object: "/admin/withdraw-applications", Action: "*"},
				{Object: "/admin/withdraw-applications/:id/review", Action: "*"},
				{Object: "/admin/withdraw-applications/:id/audit", Action: "*"},
				{Object: "/admin/withdraw-applications/:id/settle", Action: "*"},
				{Object: "/admin/withdraw-applications/:id/cancel", Action: "*"},
			},
		},
		{
			Role: "super",
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色与策略（幂等）
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role := NormalizeRole(seed.Role)
		for _, parent := range seed.Inherits {
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, NormalizeRole(parent))
			if err != nil {
				return fmt.Errorf("link role %s failed: %w", seed.Role, err)
			}
			if added {
				changed = true
			}
		}
		for _, policy := range seed.Policies {
			added, err := s.enforcer.AddPolicy(role, policy.Object, policy.Action)
			if err != nil {
				return fmt.Errorf("seed role %s failed: %w", seed.Role, err)
			}
			if added {
				changed = true
			}
		}
	}
	if changed {
		return s.saveAndReload()
	}
	return nil
}
