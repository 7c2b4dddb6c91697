package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"solvo/internal/domain/assistant"
	"solvo/internal/domain/audit"
	"solvo/internal/domain/auth"
	"solvo/internal/domain/ptl"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/ai"
	"solvo/internal/platform/config"
	"solvo/internal/platform/crypto"
	"solvo/internal/platform/db"
	"solvo/internal/platform/jobs"
	"solvo/internal/platform/kv"
	"solvo/internal/platform/logger"
	"solvo/internal/platform/metrics"
	aihandler "solvo/internal/transport/http/handlers/ai"
	audithandler "solvo/internal/transport/http/handlers/audit"
	authhandler "solvo/internal/transport/http/handlers/auth"
	datahandler "solvo/internal/transport/http/handlers/data"
	kpihandler "solvo/internal/transport/http/handlers/kpi"
	performancehandler "solvo/internal/transport/http/handlers/performance"
	ptlhandler "solvo/internal/transport/http/handlers/ptl"
	reportshandler "solvo/internal/transport/http/handlers/reports"
	teamhandler "solvo/internal/transport/http/handlers/team"
	"solvo/internal/transport/http/middleware"
)

const devJWTSecret = "solvo-development-secret"

// AI is everything the server asks of the model client.
type AI interface {
	ptl.Narrator
	assistant.ToolCaller
	aihandler.Advisor
}

type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Store     kv.Backend
	Workspace *workspace.Service
	Accounts  *auth.Service
	Jobs      *jobs.Service
	Router    http.Handler

	pool   *pgxpool.Pool
	cancel context.CancelFunc
}

type Option func(*options)

type options struct {
	logger  *zap.Logger
	backend kv.Backend
	ai      AI
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBackend replaces the configured storage backend.
func WithBackend(b kv.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithAI replaces the Gemini client.
func WithAI(client AI) Option {
	return func(o *options) { o.ai = client }
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: log}
	store := o.backend
	if store == nil {
		store, app.pool, err = openBackend(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	}
	app.Store = store

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		app.Close()
		return nil, err
	}
	if !sealer.Configured() {
		log.Warn("DATA_ENCRYPTION_KEY not set; workspace backups are stored unencrypted")
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New(prometheus.NewRegistry())
	}

	trail := audit.New(store, cfg.StoragePrefix, log)
	clock := func() time.Time { return time.Now().In(loc) }
	wsOpts := []workspace.Option{
		workspace.WithClock(clock),
		workspace.WithAuditor(trail),
	}
	if collector != nil {
		wsOpts = append(wsOpts, workspace.WithObserver(collector))
	}
	app.Workspace = workspace.NewService(store, cfg.StoragePrefix, sealer, log, wsOpts...)

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set; using the development secret")
		secret = devJWTSecret
	}
	app.Accounts = auth.NewService(auth.NewStore(store, cfg.StoragePrefix), secret, cfg.TokenTTL)

	if err := db.Seed(ctx, cfg, app.Accounts, app.Workspace, log); err != nil {
		app.Close()
		return nil, err
	}

	model := o.ai
	if model == nil {
		var recorder ai.Recorder
		if collector != nil {
			recorder = collector
		}
		client, err := ai.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, recorder)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("ai client: %w", err)
		}
		if !client.Configured() {
			log.Info("GEMINI_API_KEY not set; AI features are disabled")
		}
		model = client
	}

	assessor, err := ptl.NewAssessor(model, cfg.AITimeout, cfg.NarrativeCacheSize, log, ptl.WithClock(clock))
	if err != nil {
		app.Close()
		return nil, err
	}
	helper := assistant.NewService(model, app.Workspace, log)

	var jobRecorder jobs.Recorder
	if collector != nil {
		jobRecorder = collector
	}
	app.Jobs = jobs.New(store, cfg.StoragePrefix, log, jobRecorder)
	runCtx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.Jobs.Start(runCtx)
	if cfg.AutoEndWeek {
		app.Jobs.ScheduleEndWeek(runCtx, cfg.EndWeekCheckInterval, app.Workspace)
	}

	idem := middleware.NewIdempotencyStore(store, cfg.StoragePrefix)
	isProd := cfg.Environment == "production"

	var requests middleware.RequestRecorder
	if collector != nil {
		requests = collector
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.Logger(log, requests))
	router.Use(middleware.SecureHeaders(isProd))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(secret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.Handle("/metrics", collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(app.Accounts, log).RegisterRoutes(r)
		teamhandler.NewHandler(app.Workspace, app.Accounts).RegisterRoutes(r)
		kpihandler.NewHandler(app.Workspace, app.Accounts).RegisterRoutes(r)
		performancehandler.NewHandler(app.Workspace, app.Jobs, idem, app.Accounts, loc, log).RegisterRoutes(r)
		ptlhandler.NewHandler(app.Workspace, assessor, app.Accounts).RegisterRoutes(r)
		aihandler.NewHandler(app.Workspace, helper, model, app.Accounts, cfg.AITimeout).RegisterRoutes(r)
		datahandler.NewHandler(app.Workspace, app.Accounts, log).RegisterRoutes(r)
		reportshandler.NewHandler(app.Workspace, app.Accounts, log).RegisterRoutes(r)
		audithandler.NewHandler(trail, app.Accounts, log).RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (kv.Backend, *pgxpool.Pool, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		log.Info("using postgres storage")
		return kv.NewPostgres(pool), pool, nil
	case config.BackendRedis:
		store := kv.NewRedis(cfg.RedisAddress, cfg.RedisPassword)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("using redis storage", zap.String("address", cfg.RedisAddress))
		return store, nil, nil
	default:
		log.Info("using in-memory storage")
		return kv.NewMemory(), nil, nil
	}
}

// Close stops background jobs and releases storage.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
		a.Jobs.Wait()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("storage close failed", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// Run loads configuration from the environment and serves until SIGINT or
// SIGTERM.
func Run() error {
	cfg := config.Load()
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, WithLogger(log))
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("solvo server listening", zap.String("addr", cfg.Addr))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
