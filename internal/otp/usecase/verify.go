package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/ratelimit"
)

type VerifyInput struct {
	OwnerID int64
	Code    string `validate:"required,numeric"`
}

type VerifyOutput struct {
	OperationID string
}

// A failed verification never reveals whether the code was wrong, expired or
// absent.
var errVerifyFailed = goerror.NewBusiness("invalid or expired code", goerror.CodeInvalidInput)

// Verify consumes the caller's active code.
//
// Failed attempts are counted per owner in Redis; once the budget is spent
// further attempts are rejected without touching the store until the counter
// expires.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (_ *VerifyOutput, err error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if in.OwnerID == 0 {
		in.OwnerID = clm.UserID
	}
	if in.OwnerID != clm.UserID {
		return nil, goerror.NewBusiness("cannot verify a code for another account", goerror.CodeForbidden)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.consume(ctx, clm.Subject, in.OwnerID, in.Code)
}

func (s *Usecase) consume(ctx context.Context, username string, ownerID int64, code string) (*VerifyOutput, error) {
	key := limiterKey(ownerID)

	if err := s.limiter.Allow(ctx, key); err != nil {
		if errors.Is(err, ratelimit.ErrTooManyAttempts) {
			s.publishVerified(ctx, username, ownerID, "", entity.OutcomeFailure)
			return nil, errVerifyFailed
		}
		return nil, goerror.NewServer(err)
	}

	result, operationID, err := s.repoDB.ConsumeCode(ctx, ownerID, code, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume code", "owner_id", ownerID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if result != entity.VerifyOK {
		s.recordFailure(ctx, key)
		s.publishVerified(ctx, username, ownerID, operationID, entity.OutcomeFailure)

		return nil, errVerifyFailed
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to reset attempt counter", "owner_id", ownerID, "error", err)
	}

	s.publishVerified(ctx, username, ownerID, operationID, entity.OutcomeSuccess)

	return &VerifyOutput{OperationID: operationID}, nil
}

func (s *Usecase) recordFailure(ctx context.Context, key string) {
	cfg, err := s.repoDB.GetConfig(ctx)
	if err != nil {
		cfg = entity.DefaultConfig
	}

	if err := s.limiter.Fail(ctx, key, cfg.Lifetime()); err != nil {
		slog.WarnContext(ctx, "failed to record attempt", "key", key, "error", err)
	}
}

func (s *Usecase) publishVerified(ctx context.Context, username string, ownerID int64, operationID, outcome string) {
	if s.repoMQ == nil {
		return
	}

	err := s.repoMQ.PublishVerified(ctx, entity.Event{
		UserID:      ownerID,
		Username:    username,
		OperationID: operationID,
		Outcome:     outcome,
		At:          s.clock.Now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish verified event", "error", err)
	}
}

func limiterKey(ownerID int64) string {
	return fmt.Sprintf("otp:verify:%d", ownerID)
}
