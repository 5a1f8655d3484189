package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikstrim/otpgate/internal/identity/inbound"
	"github.com/nikstrim/otpgate/internal/identity/outbound/db"
	"github.com/nikstrim/otpgate/internal/identity/outbound/mq"
	"github.com/nikstrim/otpgate/internal/identity/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/hash"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
	"github.com/nikstrim/otpgate/internal/pkg/messaging"
	"github.com/nikstrim/otpgate/internal/pkg/router"
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
	Router     *router.Router             `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	Hash       hash.Hash                  `validate:"required"`
}

// New wires the identity module and returns its usecase so sibling modules
// can resolve accounts.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	dbUser := db.NewDB(dep.DBConn, dep.Instrument)
	mqAudit := mq.NewMQ(dep.Messaging, dep.Config.GetString("messaging.topic.audit"), dep.Instrument)

	uc := usecase.NewIdentity(usecase.Dependency{
		RepoDB:     dbUser,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		JWT:        dep.JWT,
		Hash:       dep.Hash,
		RepoMQ:     mqAudit,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	dep.Router.SetPrincipalResolver(uc)

	return uc, nil
}
