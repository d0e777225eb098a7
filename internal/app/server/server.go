package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"earnedpay/internal/domain/audit"
	"earnedpay/internal/domain/auth"
	"earnedpay/internal/domain/employer"
	"earnedpay/internal/domain/settlement"
	"earnedpay/internal/domain/worker"
	"earnedpay/internal/platform/config"
	"earnedpay/internal/platform/db"
	"earnedpay/internal/platform/jobs"
	"earnedpay/internal/platform/metrics"
	"earnedpay/internal/platform/notify"
	"earnedpay/internal/platform/payout"
	"earnedpay/internal/transport/http/api"
	audithandler "earnedpay/internal/transport/http/handlers/audit"
	authhandler "earnedpay/internal/transport/http/handlers/auth"
	employerhandler "earnedpay/internal/transport/http/handlers/employer"
	settlementhandler "earnedpay/internal/transport/http/handlers/settlement"
	workerhandler "earnedpay/internal/transport/http/handlers/worker"
	"earnedpay/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	stop context.CancelFunc
}

// New connects to Postgres, applies migrations when enabled and assembles the
// router. Close releases what New acquired.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	return NewWithPool(ctx, cfg, pool), nil
}

// NewWithPool builds the application on an existing pool and starts the
// background jobs. The pool is closed by Close.
func NewWithPool(ctx context.Context, cfg config.Config, pool *db.Pool) *App {
	collector := metrics.New()
	auditSvc := audit.New(pool)
	jobsSvc := jobs.New(pool, cfg, notify.New(cfg))

	authSvc := auth.NewService(auth.NewStore(pool), auditSvc)
	workerSvc := worker.NewService(worker.NewStore(pool), payout.New(cfg.UPIMockMode), jobsSvc, auditSvc, collector)
	employerSvc := employer.NewService(employer.NewStore(pool), auditSvc, collector)
	settlementSvc := settlement.NewService(settlement.NewStore(pool), auditSvc, collector)
	jobsSvc.SetReminderSource(employerSvc.PaydayReminders)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.IdentitySecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.OK(w, collector.Snapshot())
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(authSvc, authSvc).RegisterRoutes(r)
		workerhandler.NewHandler(workerSvc, authSvc, middleware.NewIdempotencyStore(pool)).RegisterRoutes(r)
		employerhandler.NewHandler(employerSvc, authSvc).RegisterRoutes(r)
		settlementhandler.NewHandler(settlementSvc, authSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, authSvc).RegisterRoutes(r)
	})

	jobsCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	jobsSvc.Start(jobsCtx)

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Jobs:    jobsSvc,
		Metrics: collector,
		stop:    stop,
	}
}

func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
	if a.DB != nil {
		a.DB.Close()
	}
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
		slog.Info("earnedpay api listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
