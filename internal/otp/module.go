package otp

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/otp/inbound"
	"github.com/nikstrim/otpgate/internal/otp/outbound/db"
	"github.com/nikstrim/otpgate/internal/otp/outbound/deliver"
	"github.com/nikstrim/otpgate/internal/otp/outbound/mq"
	"github.com/nikstrim/otpgate/internal/otp/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/goroutine"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/mail"
	"github.com/nikstrim/otpgate/internal/pkg/messaging"
	pkgotp "github.com/nikstrim/otpgate/internal/pkg/otp"
	"github.com/nikstrim/otpgate/internal/pkg/ratelimit"
	"github.com/nikstrim/otpgate/internal/pkg/router"
	"github.com/nikstrim/otpgate/internal/pkg/storage"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"github.com/nikstrim/otpgate/internal/pkg/validator"
)

// Directory resolves token subjects to live principals. The identity module's
// usecase satisfies it.
type Directory interface {
	ResolvePrincipal(ctx context.Context, username string) (router.Principal, error)
}

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Directory  Directory                  `validate:"required"`
	Limiter    ratelimit.Limiter          `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Mailer     mail.Mail                  `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
}

// Module exposes the wired pieces the application still needs after setup:
// the usecase for sibling modules, the dispatcher for late sender
// registration and the sweeper lifecycle.
type Module struct {
	Usecase    *usecase.Usecase
	Dispatcher *deliver.Dispatcher
	Sweeper    *usecase.Sweeper
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	dbCode := db.NewDB(dep.DBConn, dep.Instrument)
	mqAudit := mq.NewMQ(dep.Messaging, dep.Config.GetString("messaging.topic.audit"), dep.Instrument)

	dispatcher := deliver.NewDispatcher()
	dispatcher.Register(entity.ChannelEmail, deliver.NewEmailSender(dep.Mailer, dep.Config.GetString("mail.from")))
	dispatcher.Register(entity.ChannelSMS, deliver.NewSMSSender(
		dep.Config.GetString("sms.gateway.url"),
		dep.Config.GetString("sms.gateway.token"),
	))
	dispatcher.Register(entity.ChannelFile, deliver.NewFileSender(dep.Storage, dep.Config.GetString("otp.file.bucket")))

	uc := usecase.NewOTP(usecase.Dependency{
		RepoDB:     dbCode,
		RepoMQ:     mqAudit,
		Deliver:    dispatcher,
		Directory:  dep.Directory,
		Limiter:    dep.Limiter,
		Storage:    dep.Storage,
		Config:     dep.Config,
		Codegen:    pkgotp.NewNumeric(),
		UID:        dep.UID,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	sweeper := usecase.NewSweeper(uc, dep.Goroutine, dep.Config.GetMinute("otp.sweep.interval"))

	return &Module{
		Usecase:    uc,
		Dispatcher: dispatcher,
		Sweeper:    sweeper,
	}, nil
}
