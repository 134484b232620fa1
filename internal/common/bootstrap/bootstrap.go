// Package bootstrap assembles the API from its configuration: storage,
// services, routes and the shutdown hooks that release them.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fayad123/bcards-server/internal/account/cleanup"
	accounthttp "github.com/fayad123/bcards-server/internal/account/http"
	accountrepo "github.com/fayad123/bcards-server/internal/account/repository"
	accountservice "github.com/fayad123/bcards-server/internal/account/service"
	"github.com/fayad123/bcards-server/internal/auth/policy"
	"github.com/fayad123/bcards-server/internal/auth/token"
	"github.com/fayad123/bcards-server/internal/card/cache"
	cardhttp "github.com/fayad123/bcards-server/internal/card/http"
	cardrepo "github.com/fayad123/bcards-server/internal/card/repository"
	cardservice "github.com/fayad123/bcards-server/internal/card/service"
	"github.com/fayad123/bcards-server/internal/common/clock"
	"github.com/fayad123/bcards-server/internal/common/config"
	commoncrypto "github.com/fayad123/bcards-server/internal/common/crypto"
	"github.com/fayad123/bcards-server/internal/common/db"
	commonhttp "github.com/fayad123/bcards-server/internal/common/http"
	"github.com/fayad123/bcards-server/internal/common/jwtverify"
	"github.com/fayad123/bcards-server/internal/common/logger"
	"github.com/fayad123/bcards-server/internal/common/resilience"
	"github.com/fayad123/bcards-server/internal/common/server"
	"github.com/fayad123/bcards-server/internal/common/validation"
	"github.com/fayad123/bcards-server/internal/migrations"
)

const serviceName = "api"

type App struct {
	Handler  http.Handler
	Accounts *accountservice.AccountService
	Cards    *cardservice.CardService
	Tokens   *token.Service
	Hooks    []server.ShutdownHook

	cleanup *cleanup.Job
}

type stores struct {
	accounts accountrepo.Repository
	cards    cardrepo.Repository
	pinger   commonhttp.Pinger
	pool     *pgxpool.Pool
}

// Options carries the collaborators tests replace.
type Options struct {
	Clock  clock.Clock
	Hasher commoncrypto.PasswordHasher
}

func NewApp(ctx context.Context, cfg config.AppConfig, log *logger.Logger, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Hasher == nil {
		opts.Hasher = commoncrypto.NewBcryptHasher(cfg.BcryptCost)
	}

	app := &App{}

	st, err := openStores(ctx, cfg, log, opts.Clock)
	if err != nil {
		return nil, err
	}
	if st.pool != nil {
		pool := st.pool
		app.Hooks = append(app.Hooks, func(context.Context) error {
			log.Infof("closing database pool")
			pool.Close()
			return nil
		})
	}

	cardCache, closeCache := openCache(ctx, cfg, opts.Clock, log)
	if closeCache != nil {
		app.Hooks = append(app.Hooks, closeCache)
	}

	gate := validation.New()
	pol := policy.New(policy.Options{CardDeleteRequiresOwner: cfg.CardDeleteRequiresOwner})
	ids := commoncrypto.NewUUIDGenerator()
	app.Tokens = token.NewService(cfg.JWTSecret, cfg.TokenTTL, opts.Clock)

	app.Accounts = accountservice.NewAccountService(accountservice.Dependencies{
		Repo:        st.accounts,
		Hasher:      opts.Hasher,
		IDGenerator: ids,
		Tokens:      app.Tokens,
		Policy:      pol,
		Validator:   gate,
		Clock:       opts.Clock,
		Log:         log,
	}, accountservice.Options{MaxLoginStamps: cfg.MaxLoginStamps})

	app.Cards = cardservice.NewCardService(cardservice.Dependencies{
		Repo:        st.cards,
		Cache:       cardCache,
		IDGenerator: ids,
		Policy:      pol,
		Validator:   gate,
		Clock:       opts.Clock,
		Log:         log,
	})

	app.cleanup = cleanup.NewJob(st.accounts, cleanup.Config{
		Schedule:  cfg.LoginStampCleanupSchedule,
		Retention: cfg.LoginStampRetention,
	}, opts.Clock, log)

	app.Handler = commonhttp.BuildBaseHandler(serviceName, log, newRouter(cfg, log, app, st.pinger))
	return app, nil
}

// Start launches background jobs. Their stop hook runs before the stores close.
func (a *App) Start() error {
	if err := a.cleanup.Start(); err != nil {
		return err
	}
	a.Hooks = append([]server.ShutdownHook{a.cleanup.Stop}, a.Hooks...)
	return nil
}

func newRouter(cfg config.AppConfig, log *logger.Logger, app *App, pinger commonhttp.Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		MaxAge:           300,
	}))
	r.NotFound(commonhttp.NotFoundHandler)
	r.MethodNotAllowed(commonhttp.MethodNotAllowedHandler)

	r.Get("/health", commonhttp.HealthHandler(log, pinger))
	r.Handle("/metrics", promhttp.Handler())

	// Public routes ignore a bad token; protected ones reject it.
	guard := jwtverify.NewGuard(app.Tokens, log)
	accounts := accounthttp.NewHandler(app.Accounts, log)
	cards := cardhttp.NewHandler(app.Cards, log)

	r.Group(func(r chi.Router) {
		r.Use(commonhttp.WithTimeout(cfg.RequestTimeout))

		r.Route("/accounts", func(r chi.Router) {
			accounts.Routes(r, guard)
		})
		r.Route("/cards", func(r chi.Router) {
			cards.Routes(r, guard, !cfg.CardDeleteRequiresOwner)
		})
	})
	return r
}

func openStores(ctx context.Context, cfg config.AppConfig, log *logger.Logger, c clock.Clock) (stores, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warnf("using in-memory storage; data is lost on restart")
		return stores{
			accounts: accountrepo.NewMemoryRepository(c),
			cards:    cardrepo.NewMemoryRepository(c),
		}, nil
	}

	pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return stores{}, fmt.Errorf("connect database: %w", err)
	}
	if err := migrations.Up(ctx, pool, log); err != nil {
		pool.Close()
		return stores{}, err
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  cfg.CircuitBreakerThreshold,
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "postgres",
		Logger:     log,
	})
	runner := db.NewRunner(db.RunnerConfig{
		Breaker:      breaker,
		Logger:       log,
		QueryTimeout: cfg.DBQueryTimeout,
	})

	return stores{
		accounts: accountrepo.NewPgRepository(pool, runner),
		cards:    cardrepo.NewPgRepository(pool, runner),
		pinger:   pool,
		pool:     pool,
	}, nil
}

func openCache(ctx context.Context, cfg config.AppConfig, c clock.Clock, log *logger.Logger) (cache.Cache, server.ShutdownHook) {
	if cfg.CardCacheDriver == config.CacheDriverMemory {
		log.Infof("card cache enabled (in-process, ttl %v)", cfg.CardCacheTTL)
		return cache.NewMemory(cfg.CardCacheTTL, c), nil
	}
	if cfg.CardCacheDriver != config.CacheDriverRedis {
		return cache.Noop{}, nil
	}

	rc := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CardCacheTTL,
	}, log)
	if err := rc.Ping(ctx); err != nil {
		log.Warnf("card cache disabled: redis unreachable at %s: %v", cfg.RedisAddr, err)
		_ = rc.Close()
		return cache.Noop{}, nil
	}

	log.Infof("card cache enabled (redis %s, ttl %v)", cfg.RedisAddr, cfg.CardCacheTTL)
	return rc, func(context.Context) error {
		return rc.Close()
	}
}
