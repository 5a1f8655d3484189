package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikstrim/otpgate/internal/audit/inbound"
	"github.com/nikstrim/otpgate/internal/audit/outbound/db"
	"github.com/nikstrim/otpgate/internal/audit/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/goroutine"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/messaging"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"github.com/nikstrim/otpgate/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
}

// Module holds the consumer so the application controls when it starts.
type Module struct {
	Consumer *inbound.Consumer
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	dbEntry := db.NewDB(dep.DBConn, dep.Instrument)

	uc := usecase.NewAudit(usecase.Dependency{
		RepoDB:     dbEntry,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	consumer := inbound.NewConsumer(
		dep.Messaging,
		dep.Goroutine,
		dep.Config.GetString("messaging.topic.audit"),
		uc,
	)

	return &Module{Consumer: consumer}, nil
}

// Start launches the audit consumer.
func (m *Module) Start(ctx context.Context) {
	m.Consumer.Start(ctx)
}
