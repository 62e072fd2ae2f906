package auth

import (
	"errors"
	"slices"
)

// ErrUnauthorized is returned when a principal lacks every role a gate
// accepts.
var ErrUnauthorized = errors.New("unauthorized")

// Role is a capability granted to an authenticated user.
type Role string

const (
	RoleCitizen      Role = "citizen"
	RoleFieldOfficer Role = "field_officer"
	RoleOfficer      Role = "officer"
	RoleSuperAdmin   Role = "super_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleFieldOfficer, RoleOfficer, RoleSuperAdmin:
		return true
	}
	return false
}

// Principal is the authenticated actor behind a request.
type Principal struct {
	UserID string
	Name   string
	Roles  []Role
}

// HasRole reports whether p carries role. Super admins carry every role.
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, RoleSuperAdmin) || slices.Contains(p.Roles, role)
}

// IsSuperAdmin reports whether p bypasses role checks.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && slices.Contains(p.Roles, RoleSuperAdmin)
}

// Require is the single capability gate. It passes when p holds any of roles;
// calling it with no roles only checks that p is authenticated.
func Require(p *Principal, roles ...Role) error {
	if p == nil || p.UserID == "" {
		return ErrUnauthorized
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if p.HasRole(role) {
			return nil
		}
	}
	return ErrUnauthorized
}
