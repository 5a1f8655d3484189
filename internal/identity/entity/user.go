package entity

import "time"

// User is an account that can authenticate and own one-time codes.
type User struct {
	ID             int64
	Username       string
	PasswordHash   string
	Enabled        bool
	Roles          []Role
	TelegramChatID *int64
	CreatedAt      time.Time
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}

	return false
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}
