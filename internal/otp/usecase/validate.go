package usecase

import (
	"context"
	"errors"

	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

type ValidateInput struct {
	Username string `validate:"required"`
	Code     string `validate:"required,numeric"`
}

// Validate lets an administrator verify a code on behalf of any account,
// for support flows where the owner reads the code out of band. The code is
// consumed exactly as if the owner verified it.
func (s *Usecase) Validate(ctx context.Context, in ValidateInput) (_ *VerifyOutput, err error) {
	ctx, span := s.startSpan(ctx, "Validate")
	defer span.End()

	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p, err := s.directory.ResolvePrincipal(ctx, in.Username)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
		}
		return nil, goerror.NewServer(err)
	}

	return s.consume(ctx, p.Username, p.ID, in.Code)
}
