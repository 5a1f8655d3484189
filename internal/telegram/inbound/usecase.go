package inbound

import (
	"context"

	"github.com/nikstrim/otpgate/internal/telegram/entity"
	"github.com/nikstrim/otpgate/internal/telegram/usecase"
)

type uc interface {
	HandleWebhook(ctx context.Context, upd entity.Update) error
	LinkToken(ctx context.Context) (*usecase.LinkTokenOutput, error)
	Status(ctx context.Context) (*usecase.StatusOutput, error)
	SendOTP(ctx context.Context) (*usecase.SendOTPOutput, error)
}
