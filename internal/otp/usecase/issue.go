package usecase

import (
	"context"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

type IssueInput struct {
	OwnerID     int64
	Channel     entity.Channel `validate:"required"`
	Destination string
	// GenerateOnly skips delivery; the caller hands the code over itself.
	GenerateOnly bool
}

type IssueOutput struct {
	OperationID string
	Channel     entity.Channel
	ExpiresAt   int64
	// Code is set only for generate-only issuance.
	Code string
}

// Issue replaces the owner's active code with a fresh one and delivers it.
//
// The replacement happens in one transaction, so at most one ACTIVE code
// exists per owner at any time. Delivery runs after commit; when it fails the
// code stays ACTIVE and the caller gets a delivery-class error, so the owner
// can still verify through another path.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (_ *IssueOutput, err error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if in.OwnerID == 0 {
		in.OwnerID = clm.UserID
	}
	if in.OwnerID != clm.UserID {
		return nil, goerror.NewBusiness("cannot issue a code for another account", goerror.CodeForbidden)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.Channel.Valid() {
		return nil, goerror.NewBusiness("unknown delivery channel", goerror.CodeInvalidInput)
	}

	// Telegram resolves the chat from the owner's account binding and the file
	// channel falls back to a generated object key. Email and sms need an
	// explicit address, checked before the active code is superseded.
	switch in.Channel {
	case entity.ChannelTelegram:
		if in.Destination == "" {
			in.Destination = clm.Subject
		}
	case entity.ChannelEmail, entity.ChannelSMS:
		if in.Destination == "" {
			return nil, goerror.NewBusiness("destination is required for this channel", goerror.CodeInvalidInput)
		}
	}

	code, err := s.repoDB.IssueCode(ctx, in.OwnerID, func(cfg entity.Config) (entity.Code, error) {
		value, gErr := s.codegen.Generate(int(cfg.CodeLength))
		if gErr != nil {
			return entity.Code{}, gErr
		}

		now := s.clock.Now()

		return entity.Code{
			ID:          s.uid.Generate(),
			OwnerID:     in.OwnerID,
			Code:        value,
			Status:      entity.StatusActive,
			Channel:     in.Channel,
			OperationID: s.uuid.Generate(),
			CreatedAt:   now,
			ExpiresAt:   now.Add(cfg.Lifetime()),
		}, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue code", "owner_id", in.OwnerID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishIssued(ctx, clm.Subject, *code)

	out := &IssueOutput{
		OperationID: code.OperationID,
		Channel:     code.Channel,
		ExpiresAt:   code.ExpiresAt.Unix(),
	}

	if in.GenerateOnly {
		out.Code = code.Code
		return out, nil
	}

	if err := s.deliver.Deliver(ctx, in.Channel, in.Destination, code.Code); err != nil {
		slog.ErrorContext(ctx, "failed to deliver code",
			"owner_id", in.OwnerID, "channel", in.Channel, "error", err)
		return nil, goerror.NewBusiness("code could not be delivered", goerror.CodeUnavailable)
	}

	return out, nil
}

func (s *Usecase) publishIssued(ctx context.Context, username string, code entity.Code) {
	if s.repoMQ == nil {
		return
	}

	err := s.repoMQ.PublishIssued(ctx, entity.Event{
		UserID:      code.OwnerID,
		Username:    username,
		OperationID: code.OperationID,
		Channel:     code.Channel.String(),
		At:          s.clock.Now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish issued event", "error", err)
	}
}
