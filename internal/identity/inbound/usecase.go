package inbound

import (
	"context"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/identity/usecase"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	ListUsers(ctx context.Context, in usecase.ListUsersInput) ([]entity.User, error)
	DeleteUser(ctx context.Context, userID int64) error
}
