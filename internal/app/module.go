package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/nikstrim/otpgate/internal/audit"
	"github.com/nikstrim/otpgate/internal/identity"
	"github.com/nikstrim/otpgate/internal/otp"
	otpEntity "github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/telegram"
)

func (a *App) initModules() {
	identityUC, err := identity.New(identity.Dependency{
		DBConn:     a.dbConn,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Clock:      a.clock,
		Validator:  a.validator,
		Router:     a.router,
		JWT:        a.jwt,
		Hash:       a.bcrypt,
	})
	if err != nil {
		slog.Error("failed to init module identity", "error", err)
		os.Exit(1)
	}

	otpModule, err := otp.New(otp.Dependency{
		DBConn:     a.dbConn,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
		Router:     a.router,
		Directory:  identityUC,
		Limiter:    a.limiter,
		Storage:    a.storage,
		Mailer:     a.mail,
		Goroutine:  a.goroutine,
	})
	if err != nil {
		slog.Error("failed to init module otp", "error", err)
		os.Exit(1)
	}
	a.starters = append(a.starters, func(ctx context.Context) {
		otpModule.Sweeper.Start(ctx)
	})

	if a.config.GetBool("modules.telegram.enabled") {
		telegramModule, err := telegram.New(telegram.Dependency{
			Accounts:    identityUC,
			Engine:      otpModule.Usecase,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
			Router:      a.router,
			Idempotency: a.idemp,
		})
		if err != nil {
			slog.Error("failed to init module telegram", "error", err)
			os.Exit(1)
		}

		otpModule.Dispatcher.Register(otpEntity.ChannelTelegram, telegramModule.Sender)
	}

	if a.config.GetBool("modules.audit.enabled") {
		auditModule, err := audit.New(audit.Dependency{
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Clock:      a.clock,
			Validator:  a.validator,
			Goroutine:  a.goroutine,
		})
		if err != nil {
			slog.Error("failed to init module audit", "error", err)
			os.Exit(1)
		}

		a.starters = append(a.starters, auditModule.Start)
	}
}
