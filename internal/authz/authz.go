package authz

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Roles form a hierarchy: admin inherits manager, manager inherits
// employee. Policies below are the full route-level permission set; they
// are fixed at build time, there is no runtime policy administration.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

type permission struct {
	role     string
	resource string
	action   string
}

var permissions = []permission{
	{"employee", "leave", "create"},
	{"employee", "leave", "read"},
	{"employee", "leave", "edit"},
	{"employee", "leave", "cancel"},
	{"manager", "leave", "adjudicate"},
	{"admin", "user", "manage"},
	{"admin", "audit", "read"},
	{"admin", "dashboard", "read"},
}

var roleInheritance = [][2]string{
	{"admin", "manager"},
	{"manager", "employee"},
}

func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range permissions {
		if _, err := enforcer.AddPolicy(p.role, p.resource, p.action); err != nil {
			return nil, err
		}
	}
	for _, g := range roleInheritance {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}

	return enforcer, nil
}
