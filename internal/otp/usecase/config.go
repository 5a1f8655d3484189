package usecase

import (
	"context"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

type ConfigInput struct {
	CodeLength      int32 `validate:"required,gt=0,lte=12"`
	LifetimeMinutes int32 `validate:"required,gt=0,lte=1440"`
}

type ConfigOutput struct {
	CodeLength      int32
	LifetimeMinutes int32
}

// ConfigGet returns the issuing policy, materializing defaults on first read.
func (s *Usecase) ConfigGet(ctx context.Context) (_ *ConfigOutput, err error) {
	ctx, span := s.startSpan(ctx, "ConfigGet")
	defer span.End()

	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	cfg, err := s.repoDB.GetConfig(ctx)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	return &ConfigOutput{CodeLength: cfg.CodeLength, LifetimeMinutes: cfg.LifetimeMinutes}, nil
}

// ConfigUpdate replaces the issuing policy. Already-issued codes keep the
// expiry they were stamped with.
func (s *Usecase) ConfigUpdate(ctx context.Context, in ConfigInput) (_ *ConfigOutput, err error) {
	ctx, span := s.startSpan(ctx, "ConfigUpdate")
	defer span.End()

	clm, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cfg := entity.Config{CodeLength: in.CodeLength, LifetimeMinutes: in.LifetimeMinutes}
	if err := s.repoDB.UpdateConfig(ctx, cfg); err != nil {
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp policy updated",
		"by", clm.Subject, "code_length", cfg.CodeLength, "lifetime_minutes", cfg.LifetimeMinutes)

	return &ConfigOutput{CodeLength: cfg.CodeLength, LifetimeMinutes: cfg.LifetimeMinutes}, nil
}
