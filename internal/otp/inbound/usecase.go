package inbound

import (
	"context"
	"io"

	"github.com/nikstrim/otpgate/internal/otp/usecase"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Validate(ctx context.Context, in usecase.ValidateInput) (*usecase.VerifyOutput, error)
	ConfigGet(ctx context.Context) (*usecase.ConfigOutput, error)
	ConfigUpdate(ctx context.Context, in usecase.ConfigInput) (*usecase.ConfigOutput, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ExportAllCSV(ctx context.Context, w io.Writer) error
	ExportUserCSV(ctx context.Context, username string, w io.Writer) error
}
