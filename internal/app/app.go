package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikstrim/otpgate/internal/pkg/clock"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/goroutine"
	"github.com/nikstrim/otpgate/internal/pkg/hash"
	"github.com/nikstrim/otpgate/internal/pkg/idempotency"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
	"github.com/nikstrim/otpgate/internal/pkg/mail"
	"github.com/nikstrim/otpgate/internal/pkg/messaging"
	"github.com/nikstrim/otpgate/internal/pkg/ratelimit"
	"github.com/nikstrim/otpgate/internal/pkg/router"
	"github.com/nikstrim/otpgate/internal/pkg/storage"
	"github.com/nikstrim/otpgate/internal/pkg/uid"
	"github.com/nikstrim/otpgate/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	limiter   ratelimit.Limiter
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	// background workers, started with the app context
	starters []func(context.Context)

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
