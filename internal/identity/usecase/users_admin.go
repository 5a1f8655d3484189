package usecase

import (
	"context"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

type ListUsersInput struct {
	Limit  int32 `validate:"omitempty,gte=1,lte=200"`
	Offset int32 `validate:"omitempty,gte=0"`
}

// ListUsers returns accounts for administrators.
func (s *Usecase) ListUsers(ctx context.Context, in ListUsersInput) (_ []entity.User, err error) {
	ctx, span := s.startSpan(ctx, "ListUsers")
	defer span.End()

	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if in.Limit == 0 {
		in.Limit = 50
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	users, err := s.repoDB.ListUsers(ctx, in.Limit, in.Offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list users", "error", err)
		return nil, goerror.NewServer(err)
	}

	return users, nil
}

// DeleteUser removes an account and, through the schema cascade, its OTP
// history. Administrators cannot delete their own account.
func (s *Usecase) DeleteUser(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteUser")
	defer span.End()

	clm, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	if clm.UserID == userID {
		return goerror.NewBusiness("cannot delete own account", goerror.CodeInvalidInput)
	}

	deleted, err := s.repoDB.DeleteUser(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete user", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}
	if !deleted {
		return goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}

	return nil
}
