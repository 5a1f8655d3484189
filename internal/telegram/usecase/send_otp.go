package usecase

import (
	"context"

	"github.com/nikstrim/otpgate/internal/otp/entity"
	otpUsecase "github.com/nikstrim/otpgate/internal/otp/usecase"
)

type SendOTPOutput struct {
	OperationID string
	ExpiresAt   int64
}

// SendOTP issues a fresh code for the caller and delivers it into the bound
// chat through the regular delivery dispatcher.
func (s *Usecase) SendOTP(ctx context.Context) (_ *SendOTPOutput, err error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return nil, err
	}

	out, err := s.engine.Issue(ctx, otpUsecase.IssueInput{Channel: entity.ChannelTelegram})
	if err != nil {
		return nil, err
	}

	return &SendOTPOutput{OperationID: out.OperationID, ExpiresAt: out.ExpiresAt}, nil
}
