package entity

import (
	"reflect"
	"testing"
)

func TestNewRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"Admin", RoleAdmin},
		{"ROLE_ADMIN", RoleAdmin},
		{"role_admin", RoleAdmin},
		{"  user  ", RoleUser},
		{"", ""},
		{"   ", ""},
		{"auditor", Role("ROLE_AUDITOR")},
	}

	for _, tc := range tests {
		if got := NewRole(tc.in); got != tc.want {
			t.Errorf("NewRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewRoles(t *testing.T) {
	got := NewRoles([]string{"admin", "ROLE_ADMIN", "", "user"})
	want := []Role{RoleAdmin, RoleUser}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NewRoles = %v, want %v", got, want)
	}
}

func TestUserHasRole(t *testing.T) {
	u := User{Roles: []Role{RoleUser}}
	if u.IsAdmin() {
		t.Fatal("plain user should not be admin")
	}

	u.Roles = append(u.Roles, RoleAdmin)
	if !u.IsAdmin() {
		t.Fatal("expected admin after granting role")
	}
}
