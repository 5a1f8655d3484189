package telegram

import (
	"context"
	"errors"
	"fmt"

	identityEntity "github.com/nikstrim/otpgate/internal/identity/entity"
)

type chatLookup interface {
	FindByUsername(ctx context.Context, username string) (*identityEntity.User, error)
}

type chatMessenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Sender delivers codes into the chat bound to the owner's account. The
// delivery destination is the owner's username; the chat id comes from the
// stored binding.
type Sender struct {
	accounts chatLookup
	bot      chatMessenger
}

func NewSender(accounts chatLookup, bot chatMessenger) *Sender {
	return &Sender{accounts: accounts, bot: bot}
}

func (s *Sender) Send(ctx context.Context, destination, code string) error {
	if destination == "" {
		return errors.New("telegram delivery needs the owner username as destination")
	}

	user, err := s.accounts.FindByUsername(ctx, destination)
	if err != nil {
		return fmt.Errorf("resolve telegram destination: %w", err)
	}
	if user.TelegramChatID == nil {
		return errors.New("account has no linked telegram chat")
	}

	text := fmt.Sprintf("Your one-time code is %s. It expires shortly; do not share it.", code)

	return s.bot.SendMessage(ctx, *user.TelegramChatID, text)
}
