package telegram

import (
	"context"

	identityEntity "github.com/nikstrim/otpgate/internal/identity/entity"
	otpUsecase "github.com/nikstrim/otpgate/internal/otp/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/idempotency"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/kvcache"
	"github.com/nikstrim/otpgate/internal/pkg/router"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"github.com/nikstrim/otpgate/internal/pkg/validator"
	"github.com/nikstrim/otpgate/internal/telegram/inbound"
	"github.com/nikstrim/otpgate/internal/telegram/outbound/bot"
	"github.com/nikstrim/otpgate/internal/telegram/usecase"
)

// Accounts is the identity surface this module binds chats against. The
// identity module's usecase satisfies it.
type Accounts interface {
	FindByUsername(ctx context.Context, username string) (*identityEntity.User, error)
	FindByTelegramChatID(ctx context.Context, chatID int64) (*identityEntity.User, error)
	BindTelegramChat(ctx context.Context, userID, chatID int64) error
	UnbindTelegramChat(ctx context.Context, userID int64) error
}

// Engine is the OTP lifecycle surface used for in-chat code flows.
type Engine interface {
	Issue(ctx context.Context, in otpUsecase.IssueInput) (*otpUsecase.IssueOutput, error)
	Verify(ctx context.Context, in otpUsecase.VerifyInput) (*otpUsecase.VerifyOutput, error)
}

type Dependency struct {
	Accounts    Accounts                   `validate:"required"`
	Engine      Engine                     `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
}

// Module exposes the chat sender so the application can register it with the
// OTP delivery dispatcher.
type Module struct {
	Usecase *usecase.Usecase
	Sender  *Sender
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	client := bot.NewClient(dep.Config.GetString("telegram.bot.token"))
	tokens := kvcache.New(dep.Clock)

	uc := usecase.NewTelegram(usecase.Dependency{
		Accounts:    dep.Accounts,
		Engine:      dep.Engine,
		Bot:         client,
		Tokens:      tokens,
		Idempotency: dep.Idempotency,
		Config:      dep.Config,
		UUID:        dep.UUID,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetString("telegram.webhook.secret"))

	return &Module{
		Usecase: uc,
		Sender:  NewSender(dep.Accounts, client),
	}, nil
}
