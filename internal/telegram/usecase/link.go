package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

const defaultLinkTokenTTL = 10 * time.Minute

type LinkTokenOutput struct {
	Token     string
	ExpiresIn time.Duration
}

// LinkToken mints a one-shot token the caller pastes into the chat as
// "/start <token>". Consuming the token binds that chat to the account.
func (s *Usecase) LinkToken(ctx context.Context) (_ *LinkTokenOutput, err error) {
	ctx, span := s.startSpan(ctx, "LinkToken")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.GetMinute("telegram.link_token.ttl")
	if ttl <= 0 {
		ttl = defaultLinkTokenTTL
	}

	token := s.uuid.Generate()
	s.tokens.Put(token, clm.Subject, ttl)

	return &LinkTokenOutput{Token: token, ExpiresIn: ttl}, nil
}

type StatusOutput struct {
	Linked bool
}

// Status reports whether the caller's account has a chat bound to it.
func (s *Usecase) Status(ctx context.Context) (_ *StatusOutput, err error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.accounts.FindByUsername(ctx, clm.Subject)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
		}
		return nil, goerror.NewServer(err)
	}

	return &StatusOutput{Linked: user.TelegramChatID != nil}, nil
}
