package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

type RegisterInput struct {
	Username string `validate:"required,min=3,max=64"`
	Password string `validate:"required,min=8,max=128"`
}

type RegisterOutput struct {
	UserID      int64
	Username    string
	AccessToken string
}

// Register creates an enabled account with the default role and returns a
// token so the caller is signed in immediately.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (_ *RegisterOutput, err error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.User{
		ID:           s.uid.Generate(),
		Username:     in.Username,
		PasswordHash: string(hashed),
		Enabled:      true,
		Roles:        []entity.Role{entity.RoleUser},
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repoDB.CreateUser(ctx, user); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("username already taken", goerror.CodeConflict)
		}

		slog.ErrorContext(ctx, "failed to repo create user", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(user.ID, user.Username, entity.RoleNames(user.Roles))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{
		UserID:      user.ID,
		Username:    user.Username,
		AccessToken: token,
	}, nil
}
