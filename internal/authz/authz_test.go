package authz_test

import (
	"testing"

	"go-elms/internal/authz"

	"github.com/stretchr/testify/assert"
)

func TestNewEnforcer(t *testing.T) {
	enforcer, err := authz.NewEnforcer()
	assert.NoError(t, err)
	assert.NotNil(t, enforcer)

	cases := []struct {
		name     string
		role     string
		resource string
		action   string
		allowed  bool
	}{
		{"employee can create leave", "employee", "leave", "create", true},
		{"employee can read leave", "employee", "leave", "read", true},
		{"employee can edit leave", "employee", "leave", "edit", true},
		{"employee can cancel leave", "employee", "leave", "cancel", true},
		{"employee cannot adjudicate", "employee", "leave", "adjudicate", false},
		{"employee cannot manage users", "employee", "user", "manage", false},
		{"employee cannot read audit", "employee", "audit", "read", false},
		{"manager can adjudicate", "manager", "leave", "adjudicate", true},
		{"manager inherits leave create", "manager", "leave", "create", true},
		{"manager cannot manage users", "manager", "user", "manage", false},
		{"manager cannot read dashboard", "manager", "dashboard", "read", false},
		{"admin can manage users", "admin", "user", "manage", true},
		{"admin can read audit", "admin", "audit", "read", true},
		{"admin can read dashboard", "admin", "dashboard", "read", true},
		{"admin inherits adjudicate through manager", "admin", "leave", "adjudicate", true},
		{"admin inherits leave create through employee", "admin", "leave", "create", true},
		{"unknown role gets nothing", "guest", "leave", "read", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allowed, err := enforcer.Enforce(tc.role, tc.resource, tc.action)
			assert.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}
