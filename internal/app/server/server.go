package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrmgate/internal/domain/accounts"
	"hrmgate/internal/domain/attendance"
	"hrmgate/internal/domain/audit"
	"hrmgate/internal/domain/auth"
	"hrmgate/internal/domain/session"
	"hrmgate/internal/platform/broker"
	"hrmgate/internal/platform/config"
	"hrmgate/internal/platform/crypto"
	"hrmgate/internal/platform/db"
	"hrmgate/internal/platform/jobs"
	"hrmgate/internal/platform/metrics"
	attendancehandler "hrmgate/internal/transport/http/handlers/attendance"
	audithandler "hrmgate/internal/transport/http/handlers/audit"
	authhandler "hrmgate/internal/transport/http/handlers/auth"
	authzhandler "hrmgate/internal/transport/http/handlers/authz"
	pageshandler "hrmgate/internal/transport/http/handlers/pages"
	reportshandler "hrmgate/internal/transport/http/handlers/reports"
	usershandler "hrmgate/internal/transport/http/handlers/users"
	"hrmgate/internal/transport/http/middleware"
)

const (
	mfaIssuer         = "hrmgate"
	sessionGCInterval = 10 * time.Minute
	shutdownTimeout   = 15 * time.Second
)

type eventPublisher interface {
	accounts.Publisher
	Close()
}

// App is a fully wired server. Without DATABASE_URL every store is kept in
// memory.
type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Router   http.Handler
	Accounts *accounts.Service
	Authz    *auth.Authorizer
	Sessions session.Storage
	Metrics  *metrics.Collector
	Jobs     *jobs.Service

	sessionDB *badger.DB
	events    eventPublisher
	cancel    context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	if err := app.init(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config
	if cfg.JWTSecret == "" {
		secret, err := ephemeralSecret()
		if err != nil {
			return err
		}
		a.Config.JWTSecret = secret
		slog.WarnContext(ctx, "JWT_SECRET not set, tokens will not survive a restart")
	}

	policy, err := auth.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	a.Metrics = metrics.New()
	a.Authz = auth.NewAuthorizer(policy, auth.WithObserver(a.Metrics))

	var (
		accountRepo    accounts.Repository
		attendanceRepo attendance.Repository
		auditService   *audit.Service
		recorder       accounts.AuditRecorder
	)
	if cfg.DatabaseURL != "" {
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.DB = pool
		accountRepo = accounts.NewStore(pool)
		attendanceRepo = attendance.NewStore(pool)
		auditService = audit.New(pool)
		recorder = auditService
	} else {
		slog.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		accountRepo = accounts.NewMemoryRepository()
		attendanceRepo = attendance.NewMemoryRepository()
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return err
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.events = broker.NewProducer(slog.Default(), cfg.KafkaBrokers, cfg.KafkaUserEventTopic)
	} else {
		a.events = broker.Nop{}
	}

	opts := []accounts.Option{
		accounts.WithPublisher(a.events),
		accounts.WithSealer(sealer, mfaIssuer),
	}
	if recorder != nil {
		opts = append(opts, accounts.WithAudit(recorder))
	}
	a.Accounts = accounts.NewService(accountRepo, opts...)
	attendanceService := attendance.NewService(attendanceRepo, a.Accounts, recorder)

	if cfg.RunSeed {
		if err := db.Seed(ctx, a.Accounts, cfg.Seed); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	a.sessionDB, err = session.OpenBadger(cfg.SessionDir)
	if err != nil {
		return err
	}
	sessions := session.NewBadgerStorage(a.sessionDB, cfg.SessionTTL)
	a.Sessions = sessions

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.Jobs = jobs.New(slog.Default())
	if cfg.SessionDir != "" {
		a.Jobs.Every("session-gc", sessionGCInterval, sessions.CollectGarbage)
	}
	a.Jobs.Start(jobCtx)

	a.Router = a.routes(attendanceService, auditService)
	return nil
}

func (a *App) routes(attendanceService *attendance.Service, auditService *audit.Service) http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(slog.Default(), a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-Total-Count"},
			MaxAge:         300,
		}))
	}
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(a.Config.JWTSecret, a.Sessions, a.Accounts))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(a.Accounts, a.Sessions, a.Config.JWTSecret, cfg.TokenTTL, a.Metrics)
		authHandler.RegisterRoutes(r, middleware.LoginRateLimit(cfg.RateLimitPerMinute, time.Minute))

		usershandler.NewHandler(a.Accounts, a.Authz).RegisterRoutes(r)
		authzhandler.NewHandler(a.Authz).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceService).RegisterRoutes(r)
		reportshandler.NewHandler(a.Authz).RegisterRoutes(r)
		if auditService != nil {
			audithandler.NewHandler(auditService, a.Authz).RegisterRoutes(r)
		}
	})

	pageshandler.NewHandler(session.NewGuard(a.Authz)).RegisterRoutes(router)
	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hrmgate listening", "addr", a.Config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases everything New acquired. It is safe on a partially built App.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
		a.Jobs.Wait()
	}
	if a.events != nil {
		a.events.Close()
	}
	if a.sessionDB != nil {
		if err := a.sessionDB.Close(); err != nil {
			slog.Warn("close session store failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func ephemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
