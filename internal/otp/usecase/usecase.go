package usecase

import (
	"context"
	"time"

	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
	pkgotp "github.com/nikstrim/otpgate/internal/pkg/otp"
	"github.com/nikstrim/otpgate/internal/pkg/ratelimit"
	"github.com/nikstrim/otpgate/internal/pkg/router"
	"github.com/nikstrim/otpgate/internal/pkg/storage"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"github.com/nikstrim/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	IssueCode(ctx context.Context, ownerID int64, build func(cfg entity.Config) (entity.Code, error)) (*entity.Code, error)
	ConsumeCode(ctx context.Context, ownerID int64, code string, now time.Time) (entity.VerifyResult, string, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	ListCodesByOwner(ctx context.Context, ownerID int64) ([]entity.Record, error)
	ListAllCodes(ctx context.Context) ([]entity.Record, error)
	GetConfig(ctx context.Context) (entity.Config, error)
	UpdateConfig(ctx context.Context, cfg entity.Config) error
}

type repoMQ interface {
	PublishIssued(ctx context.Context, ev entity.Event) error
	PublishVerified(ctx context.Context, ev entity.Event) error
}

type deliverer interface {
	Deliver(ctx context.Context, ch entity.Channel, destination, code string) error
}

// directory resolves usernames to live principals. Satisfied by the identity
// module's usecase.
type directory interface {
	ResolvePrincipal(ctx context.Context, username string) (router.Principal, error)
}

type Usecase struct {
	repoDB    repoDB
	repoMQ    repoMQ
	deliver   deliverer
	directory directory
	limiter   ratelimit.Limiter
	store     storage.Storage
	cfg       config.Config
	codegen   pkgotp.Generator
	uid       uid.NumberID
	uuid      uid.StringID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoMQ     repoMQ
	Deliver    deliverer
	Directory  directory
	Limiter    ratelimit.Limiter
	Storage    storage.Storage
	Config     config.Config
	Codegen    pkgotp.Generator
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewOTP(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMQ:    dep.RepoMQ,
		deliver:   dep.Deliver,
		directory: dep.Directory,
		limiter:   dep.Limiter,
		store:     dep.Storage,
		cfg:       dep.Config,
		codegen:   dep.Codegen,
		uid:       dep.UID,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// requireAdmin re-resolves the caller so a role revoked after token issuance
// takes effect immediately.
func (s *Usecase) requireAdmin(ctx context.Context) (*jwt.Claims, error) {
	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.directory.ResolvePrincipal(ctx, clm.Subject)
	if err != nil || !p.Enabled || !p.IsAdmin() {
		return nil, goerror.NewBusiness("admin privileges required", goerror.CodeForbidden)
	}

	return clm, nil
}
