package usecase

import (
	"context"
	"log/slog"

	"github.com/nikstrim/otpgate/internal/audit/entity"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	InsertEntry(ctx context.Context, entry entity.Entry) error
}

type Usecase struct {
	repoDB repoDB
	uid    uid.NumberID
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func NewAudit(dep Dependency) *Usecase {
	return &Usecase{
		repoDB: dep.RepoDB,
		uid:    dep.UID,
		clock:  dep.Clock,
		ins:    dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.usecase").Start(ctx, name)
}

// Record persists one audit event payload. Unparseable payloads are logged
// and dropped so a bad message can never wedge the consumer.
func (s *Usecase) Record(ctx context.Context, body []byte) (err error) {
	ctx, span := s.startSpan(ctx, "Record")
	defer span.End()

	entry, err := entity.ParseEvent(body)
	if err != nil {
		slog.WarnContext(ctx, "dropping unparseable audit event", "error", err)
		return nil
	}
	if entry.Action == "" {
		slog.WarnContext(ctx, "dropping audit event without action")
		return nil
	}

	entry.ID = s.uid.Generate()
	entry.CreatedAt = s.clock.Now()
	if entry.At.IsZero() {
		entry.At = entry.CreatedAt
	}

	if err := s.repoDB.InsertEntry(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to persist audit entry", "action", entry.Action, "error", err)
		return err
	}

	return nil
}
