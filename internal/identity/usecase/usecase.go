package usecase

import (
	"context"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/hash"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"github.com/nikstrim/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateUser(ctx context.Context, user entity.User) error
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	GetUserByTelegramChatID(ctx context.Context, chatID int64) (*entity.User, error)
	ListUsers(ctx context.Context, limit, offset int32) ([]entity.User, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)
	SetTelegramChatID(ctx context.Context, userID int64, chatID *int64) error
}

type repoMQ interface {
	PublishLoggedIn(ctx context.Context, evt entity.LoginEvent) error
}

type Usecase struct {
	repoDB    repoDB
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	jwt       jwt.JWT
	hash      hash.Hash
	repoMQ    repoMQ
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	JWT        jwt.JWT
	Hash       hash.Hash
	RepoMQ     repoMQ
	Instrument instrument.Instrumentation
}

func NewIdentity(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		jwt:       dep.JWT,
		hash:      dep.Hash,
		repoMQ:    dep.RepoMQ,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// requireAdmin re-reads the account so a role revoked after token issuance
// takes effect immediately.
func (s *Usecase) requireAdmin(ctx context.Context) (*jwt.Claims, error) {
	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByUsername(ctx, clm.Subject)
	if err != nil || !user.Enabled || !user.IsAdmin() {
		return nil, goerror.NewBusiness("admin privileges required", goerror.CodeForbidden)
	}

	return clm, nil
}
