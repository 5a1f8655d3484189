package inbound

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID      int64    `json:"user_id,string"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles,omitempty"`
	AccessToken string   `json:"access_token"`
}

type UserResponse struct {
	ID             int64     `json:"id,string"`
	Username       string    `json:"username"`
	Enabled        bool      `json:"enabled"`
	Roles          []string  `json:"roles"`
	TelegramLinked bool      `json:"telegram_linked"`
	CreatedAt      time.Time `json:"created_at"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}
