package entity

import "strings"

// Role is a normalized authority name carrying the ROLE_ prefix.
type Role string

const (
	// RoleUser is the default role granted at registration.
	RoleUser Role = "ROLE_USER"
	// RoleAdmin grants access to administrative endpoints.
	RoleAdmin Role = "ROLE_ADMIN"
)

// NewRole normalizes a role name: trimmed, upper-cased and prefixed with
// ROLE_ exactly once, so "admin", "Admin" and "ROLE_ADMIN" all collapse to
// the same value.
func NewRole(name string) Role {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	if !strings.HasPrefix(n, "ROLE_") {
		n = "ROLE_" + n
	}

	return Role(n)
}

// String returns the role as a plain string.
func (r Role) String() string {
	return string(r)
}

// NewRoles normalizes a list of role names, dropping empties and duplicates
// while keeping first-seen order.
func NewRoles(names []string) []Role {
	seen := make(map[Role]struct{}, len(names))
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		r := NewRole(n)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}

	return roles
}

// RoleNames projects roles back to plain strings.
func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}

	return names
}
