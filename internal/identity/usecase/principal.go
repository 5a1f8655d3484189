package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/router"
)

// ResolvePrincipal implements router.PrincipalResolver: it maps a token
// subject to the live account state for the authentication middleware.
func (s *Usecase) ResolvePrincipal(ctx context.Context, username string) (router.Principal, error) {
	user, err := s.repoDB.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to resolve principal", "username", username, "error", err)
		}
		return router.Principal{}, err
	}

	return router.Principal{
		ID:       user.ID,
		Username: user.Username,
		Roles:    entity.RoleNames(user.Roles),
		Enabled:  user.Enabled,
	}, nil
}

// FindByUsername returns the account for other modules (OTP ownership,
// telegram binding).
func (s *Usecase) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return s.repoDB.GetUserByUsername(ctx, username)
}

// FindByTelegramChatID returns the account bound to a telegram chat.
func (s *Usecase) FindByTelegramChatID(ctx context.Context, chatID int64) (*entity.User, error) {
	return s.repoDB.GetUserByTelegramChatID(ctx, chatID)
}

// BindTelegramChat links a chat to the account.
func (s *Usecase) BindTelegramChat(ctx context.Context, userID, chatID int64) error {
	return s.repoDB.SetTelegramChatID(ctx, userID, &chatID)
}

// UnbindTelegramChat removes the chat link from the account.
func (s *Usecase) UnbindTelegramChat(ctx context.Context, userID int64) error {
	return s.repoDB.SetTelegramChatID(ctx, userID, nil)
}
