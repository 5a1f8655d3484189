package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

type LoginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	UserID      int64
	Username    string
	Roles       []string
	AccessToken string
}

// Login checks credentials and returns a signed token. Unknown accounts,
// disabled accounts and wrong passwords all fail with the same message.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (_ *LoginOutput, err error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	errInvalid := goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)

	user, err := s.repoDB.GetUserByUsername(ctx, in.Username)
	if errors.Is(err, goerror.ErrNotFound) {
		s.publishLogin(ctx, 0, in.Username, entity.LoginOutcomeFailure)
		return nil, errInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by username", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !user.Enabled || !s.hash.Verify(user.PasswordHash, in.Password) {
		s.publishLogin(ctx, user.ID, user.Username, entity.LoginOutcomeFailure)
		return nil, errInvalid
	}

	roles := entity.RoleNames(user.Roles)
	token, err := s.jwt.Generate(user.ID, user.Username, roles)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishLogin(ctx, user.ID, user.Username, entity.LoginOutcomeSuccess)

	return &LoginOutput{
		UserID:      user.ID,
		Username:    user.Username,
		Roles:       roles,
		AccessToken: token,
	}, nil
}

// publishLogin is fire and forget; an audit outage must not block logins.
func (s *Usecase) publishLogin(ctx context.Context, userID int64, username, outcome string) {
	if s.repoMQ == nil {
		return
	}

	evt := entity.LoginEvent{
		Action:   entity.ActionLogin,
		UserID:   userID,
		Username: username,
		Outcome:  outcome,
		At:       s.clock.Now(),
	}
	if err := s.repoMQ.PublishLoggedIn(ctx, evt); err != nil {
		slog.WarnContext(ctx, "failed to publish login event", "username", username, "error", err)
	}
}
