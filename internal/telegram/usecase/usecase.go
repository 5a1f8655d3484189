package usecase

import (
	"context"

	libJWT "github.com/golang-jwt/jwt/v5"
	identityEntity "github.com/nikstrim/otpgate/internal/identity/entity"
	otpUsecase "github.com/nikstrim/otpgate/internal/otp/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/idempotency"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
	"github.com/nikstrim/otpgate/internal/pkg/kvcache"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
)

// accounts is the slice of the identity module this module needs for chat
// bindings.
type accounts interface {
	FindByUsername(ctx context.Context, username string) (*identityEntity.User, error)
	FindByTelegramChatID(ctx context.Context, chatID int64) (*identityEntity.User, error)
	BindTelegramChat(ctx context.Context, userID, chatID int64) error
	UnbindTelegramChat(ctx context.Context, userID int64) error
}

// engine is the slice of the OTP lifecycle engine used for in-chat flows.
type engine interface {
	Issue(ctx context.Context, in otpUsecase.IssueInput) (*otpUsecase.IssueOutput, error)
	Verify(ctx context.Context, in otpUsecase.VerifyInput) (*otpUsecase.VerifyOutput, error)
}

// messenger pushes replies back into a chat.
type messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Usecase struct {
	accounts accounts
	engine   engine
	bot      messenger
	tokens   *kvcache.Cache
	idem     idempotency.Idempotency
	cfg      config.Config
	uuid     uid.StringID
	ins      instrument.Instrumentation
}

type Dependency struct {
	Accounts    accounts
	Engine      engine
	Bot         messenger
	Tokens      *kvcache.Cache
	Idempotency idempotency.Idempotency
	Config      config.Config
	UUID        uid.StringID
	Instrument  instrument.Instrumentation
}

func NewTelegram(dep Dependency) *Usecase {
	return &Usecase{
		accounts: dep.Accounts,
		engine:   dep.Engine,
		bot:      dep.Bot,
		tokens:   dep.Tokens,
		idem:     dep.Idempotency,
		cfg:      dep.Config,
		uuid:     dep.UUID,
		ins:      dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("telegram.usecase").Start(ctx, name)
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// authAs installs the bound account's identity into the context. A verified
// chat binding authenticates the sender the same way a bearer token would.
func authAs(ctx context.Context, user *identityEntity.User) context.Context {
	return jwt.SetAuth(ctx, jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{Subject: user.Username},
		UserID:           user.ID,
		Username:         user.Username,
		Roles:            identityEntity.RoleNames(user.Roles),
	})
}
