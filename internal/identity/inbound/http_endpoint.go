package inbound

import (
	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/identity/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/router"
	"github.com/samber/lo"
)

type HTTPEndpoint struct {
	uc uc
}

// Register creates a new account and signs it in.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return AuthResponse{
		UserID:      out.UserID,
		Username:    out.Username,
		AccessToken: out.AccessToken,
	}, nil
}

// Login exchanges credentials for a bearer token.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return AuthResponse{
		UserID:      out.UserID,
		Username:    out.Username,
		Roles:       out.Roles,
		AccessToken: out.AccessToken,
	}, nil
}

// ListUsers returns all accounts (admin only).
func (h *HTTPEndpoint) ListUsers(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	users, err := h.uc.ListUsers(r.Context(), usecase.ListUsersInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	return UsersResponse{
		Users: lo.Map(users, func(u entity.User, _ int) UserResponse {
			return UserResponse{
				ID:             u.ID,
				Username:       u.Username,
				Enabled:        u.Enabled,
				Roles:          entity.RoleNames(u.Roles),
				TelegramLinked: u.TelegramChatID != nil,
				CreatedAt:      u.CreatedAt,
			}
		}),
	}, nil
}

// DeleteUser removes an account and its OTP history (admin only).
func (h *HTTPEndpoint) DeleteUser(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.DeleteUser(r.Context(), id)
}
