package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	otpEntity "github.com/nikstrim/otpgate/internal/otp/entity"
	otpUsecase "github.com/nikstrim/otpgate/internal/otp/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/idempotency"
	"github.com/nikstrim/otpgate/internal/telegram/entity"
)

const helpReply = "Commands: /start <token> to link your account, /code to get a one-time code, /verify <code> to verify one, /unlink to unlink this chat."

// HandleWebhook processes one bot update. Telegram redelivers updates until
// it sees a 2xx, so duplicates are dropped by update id and command failures
// are answered in-chat rather than surfaced as errors.
func (s *Usecase) HandleWebhook(ctx context.Context, upd entity.Update) (err error) {
	ctx, span := s.startSpan(ctx, "HandleWebhook")
	defer span.End()

	if upd.Message == nil || upd.ChatID() == 0 {
		return nil
	}

	key := fmt.Sprintf("telegram:update:%d", upd.UpdateID)
	err = s.idem.Exec(ctx, key, func(ctx context.Context) error {
		s.handleMessage(ctx, upd)
		return nil
	}, idempotency.WithStateTTL(24*time.Hour))
	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "duplicate telegram update dropped", "update_id", upd.UpdateID)
		return nil
	}

	return err
}

func (s *Usecase) handleMessage(ctx context.Context, upd entity.Update) {
	chatID := upd.ChatID()
	fields := strings.Fields(upd.Text())
	if len(fields) == 0 {
		s.reply(ctx, chatID, helpReply)
		return
	}

	switch fields[0] {
	case "/start":
		s.handleStart(ctx, chatID, fields[1:])
	case "/code":
		s.handleCode(ctx, chatID)
	case "/verify":
		s.handleVerify(ctx, chatID, fields[1:])
	case "/unlink":
		s.handleUnlink(ctx, chatID)
	default:
		s.reply(ctx, chatID, helpReply)
	}
}

func (s *Usecase) handleStart(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		s.reply(ctx, chatID, "Usage: /start <token>. Get a token from the link-token endpoint.")
		return
	}

	username, ok := s.tokens.Take(args[0])
	if !ok {
		s.reply(ctx, chatID, "That link token is invalid or expired. Request a new one.")
		return
	}

	user, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load account for linking", "username", username, "error", err)
		s.reply(ctx, chatID, "Linking failed. Request a new token and try again.")
		return
	}

	if err := s.accounts.BindTelegramChat(ctx, user.ID, chatID); err != nil {
		slog.ErrorContext(ctx, "failed to bind chat", "user_id", user.ID, "error", err)
		s.reply(ctx, chatID, "Linking failed. Request a new token and try again.")
		return
	}

	s.reply(ctx, chatID, fmt.Sprintf("This chat is now linked to %s.", user.Username))
}

func (s *Usecase) handleCode(ctx context.Context, chatID int64) {
	user, err := s.accounts.FindByTelegramChatID(ctx, chatID)
	if err != nil {
		s.reply(ctx, chatID, "This chat is not linked to an account. Use /start <token> first.")
		return
	}

	out, err := s.engine.Issue(authAs(ctx, user), otpUsecase.IssueInput{
		Channel:      otpEntity.ChannelTelegram,
		GenerateOnly: true,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue code from chat", "user_id", user.ID, "error", err)
		s.reply(ctx, chatID, "Could not issue a code right now. Try again later.")
		return
	}

	s.reply(ctx, chatID, fmt.Sprintf("Your one-time code is %s. It expires in a few minutes; do not share it.", out.Code))
}

func (s *Usecase) handleVerify(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		s.reply(ctx, chatID, "Usage: /verify <code>")
		return
	}

	user, err := s.accounts.FindByTelegramChatID(ctx, chatID)
	if err != nil {
		s.reply(ctx, chatID, "This chat is not linked to an account. Use /start <token> first.")
		return
	}

	_, err = s.engine.Verify(authAs(ctx, user), otpUsecase.VerifyInput{Code: args[0]})
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			s.reply(ctx, chatID, "That code is invalid or expired.")
			return
		}
		slog.ErrorContext(ctx, "failed to verify code from chat", "user_id", user.ID, "error", err)
		s.reply(ctx, chatID, "Verification failed. Try again later.")
		return
	}

	s.reply(ctx, chatID, "Code verified.")
}

func (s *Usecase) handleUnlink(ctx context.Context, chatID int64) {
	user, err := s.accounts.FindByTelegramChatID(ctx, chatID)
	if err != nil {
		s.reply(ctx, chatID, "This chat is not linked to an account.")
		return
	}

	if err := s.accounts.UnbindTelegramChat(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "failed to unbind chat", "user_id", user.ID, "error", err)
		s.reply(ctx, chatID, "Unlinking failed. Try again later.")
		return
	}

	s.reply(ctx, chatID, "This chat is no longer linked.")
}

func (s *Usecase) reply(ctx context.Context, chatID int64, text string) {
	if err := s.bot.SendMessage(ctx, chatID, text); err != nil {
		slog.WarnContext(ctx, "failed to send chat reply", "chat_id", chatID, "error", err)
	}
}
