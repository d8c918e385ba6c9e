package access

import (
	"fmt"
	"sort"
)

// Capabilities checked by the profile field code.
const (
	CapUserUpdate     = "user:update"
	CapViewAllDetails = "user:viewalldetails"
	CapSiteConfig     = "site:config"
)

// Scope is the context a capability is checked in: the whole system or
// one user's profile.
type Scope struct {
	UserID int64
}

// SystemScope returns the system-wide scope.
func SystemScope() Scope { return Scope{} }

// UserScope returns the scope of one user's profile.
func UserScope(userID int64) Scope { return Scope{UserID: userID} }

// IsSystem reports whether s is the system scope.
func (s Scope) IsSystem() bool { return s.UserID == 0 }

// Checker answers whether a caller holds a capability in a scope.
type Checker interface {
	HasCapability(c Caller, capability string, scope Scope) bool
}

// Assignment grants a role to a user, either system-wide (Scope 0) or
// within one user's profile.
type Assignment struct {
	UserID int64  `mapstructure:"user" yaml:"user" json:"user"`
	Role   string `mapstructure:"role" yaml:"role" json:"role"`
	Scope  int64  `mapstructure:"scope" yaml:"scope,omitempty" json:"scope,omitempty"`
}

// RoleChecker resolves capabilities from roles and role assignments.
// System assignments apply in every scope.
type RoleChecker struct {
	roles  map[string]map[string]bool
	assign map[int64][]Assignment
}

// NewRoleChecker builds a checker from role definitions (role name to
// capability list) and assignments. Assignments naming an unknown role
// are rejected.
func NewRoleChecker(roles map[string][]string, assignments []Assignment) (*RoleChecker, error) {
	rc := &RoleChecker{
		roles:  make(map[string]map[string]bool, len(roles)),
		assign: make(map[int64][]Assignment),
	}
	for name, caps := range roles {
		set := make(map[string]bool, len(caps))
		for _, c := range caps {
			set[c] = true
		}
		rc.roles[name] = set
	}
	for _, a := range assignments {
		if _, ok := rc.roles[a.Role]; !ok {
			return nil, fmt.Errorf("assignment for user %d: unknown role %q", a.UserID, a.Role)
		}
		if a.UserID <= 0 {
			return nil, fmt.Errorf("assignment of role %q: invalid user %d", a.Role, a.UserID)
		}
		rc.assign[a.UserID] = append(rc.assign[a.UserID], a)
	}
	return rc, nil
}

// HasCapability implements Checker. Anonymous callers hold nothing.
func (rc *RoleChecker) HasCapability(c Caller, capability string, scope Scope) bool {
	if rc == nil || c.UserID <= 0 {
		return false
	}
	for _, a := range rc.assign[c.UserID] {
		if a.Scope != 0 && a.Scope != scope.UserID {
			continue
		}
		if rc.roles[a.Role][capability] {
			return true
		}
	}
	return false
}

// Capabilities lists what the caller holds in scope, sorted.
func (rc *RoleChecker) Capabilities(c Caller, scope Scope) []string {
	seen := make(map[string]bool)
	for _, a := range rc.assign[c.UserID] {
		if a.Scope != 0 && a.Scope != scope.UserID {
			continue
		}
		for capability := range rc.roles[a.Role] {
			seen[capability] = true
		}
	}
	out := make([]string, 0, len(seen))
	for capability := range seen {
		out = append(out, capability)
	}
	sort.Strings(out)
	return out
}

// DefaultRoles are written to a fresh config.yaml.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"admin":   {CapUserUpdate, CapViewAllDetails, CapSiteConfig},
		"manager": {CapViewAllDetails},
		"parent":  {CapViewAllDetails},
	}
}

// Operator grants every capability. The command-line tool acts as the
// site operator.
type Operator struct{}

// HasCapability implements Checker.
func (Operator) HasCapability(Caller, string, Scope) bool { return true }
