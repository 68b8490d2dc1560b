package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukerupert/taxsim/internal"
	"github.com/dukerupert/taxsim/internal/auth"
	"github.com/dukerupert/taxsim/internal/bootstrap"
	"github.com/dukerupert/taxsim/internal/cache"
	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/events"
	"github.com/dukerupert/taxsim/internal/handler"
	"github.com/dukerupert/taxsim/internal/handler/api"
	"github.com/dukerupert/taxsim/internal/invoice"
	"github.com/dukerupert/taxsim/internal/jobs"
	"github.com/dukerupert/taxsim/internal/memory"
	"github.com/dukerupert/taxsim/internal/middleware"
	"github.com/dukerupert/taxsim/internal/postgres"
	"github.com/dukerupert/taxsim/internal/router"
	"github.com/dukerupert/taxsim/internal/routes"
	"github.com/dukerupert/taxsim/internal/service"
	"github.com/dukerupert/taxsim/internal/storage"
	"github.com/dukerupert/taxsim/internal/tax"
	"github.com/dukerupert/taxsim/internal/telemetry"
	"github.com/dukerupert/taxsim/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const metricsNamespace = "taxsim"

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	health := map[string]api.Pinger{}

	// ==========================================================================
	// Initialize persistence
	// ==========================================================================

	var (
		orders domain.OrderRepository
		users  domain.UserRepository
	)
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		orders = memory.NewOrderRepository()
		users = memory.NewUserRepository()

	case "postgres":
		pool, err := openDatabase(ctx, cfg.DatabaseUrl, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		orders = postgres.NewOrderRepository(pool)
		users = postgres.NewUserRepository(pool)
		health["database"] = pool

	default:
		return fmt.Errorf("unknown store driver: %q", cfg.StoreDriver)
	}

	// Invoice storage
	store, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Invoice storage initialized", "provider", cfg.Storage.Provider)

	// Report cache (optional)
	var reportCache service.ReportCache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisReportCache(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize report cache: %w", err)
		}
		defer redisCache.Close()

		reportCache = redisCache
		health["redis"] = redisCache
		logger.Info("Report cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// Order event publisher
	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}()

	// ==========================================================================
	// Initialize services
	// ==========================================================================

	businessMetrics := telemetry.InitBusinessMetrics(metricsNamespace)
	renderer := invoice.NewPDFRenderer(store, cfg.Invoice.DownloadPrefix, logger)
	calculator := tax.NewRateCalculator()

	invoicingService := service.NewInvoicingService(
		orders,
		calculator,
		renderer,
		publisher,
		reportCache,
		businessMetrics,
		cfg.Invoice.RenderTimeout,
		logger,
	)
	reportService := service.NewReportService(orders, reportCache, businessMetrics, logger)
	userService := service.NewUserService(users, logger)

	if err := bootstrap.EnsureAdmin(ctx, users, cfg.Admin, logger); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics(metricsNamespace, nil)
	authenticator := auth.NewAuthenticator(users)

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" || cfg.Env == "development" {
		securityConfig.HSTSMaxAge = 0
	}

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		telemetry.SentryMiddleware(),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		middleware.SecurityHeaders(securityConfig),
		metrics.Middleware,
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health:  api.NewHealthHandler(health),
		Metrics: metrics.Handler(),
	})

	authed := r.Group(
		middleware.BasicAuth(authenticator),
		telemetry.SentryContextMiddleware(sentryUser),
		rateLimiter.Middleware,
	)

	routes.RegisterInvoicingRoutes(authed, routes.InvoicingDeps{
		Orders:   api.NewOrderHandler(invoicingService, logger),
		Reports:  api.NewReportHandler(reportService, time.UTC, logger),
		Invoices: api.NewInvoiceHandler(store, logger),
	})
	routes.RegisterAdminRoutes(authed, routes.AdminDeps{
		Users: api.NewUserHandler(userService, logger),
	})

	r.NotFound(handler.NotFoundResponse)

	// ==========================================================================
	// Start background worker
	// ==========================================================================

	if cfg.Worker.Enabled {
		w := worker.NewWorker(jobs.ReconcileDeps{
			Orders:        orders,
			Renderer:      renderer,
			Publisher:     publisher,
			Reports:       reportCache,
			Metrics:       businessMetrics,
			RenderTimeout: cfg.Invoice.RenderTimeout,
		}, worker.Config{
			PollInterval: cfg.Worker.PollInterval,
			BatchSize:    cfg.Worker.BatchSize,
			GracePeriod:  cfg.Worker.GracePeriod,
		}, logger)

		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", "error", err)
			}
		}()
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.CORS(cfg.CORSOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", server.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

// openDatabase runs migrations over database/sql, then opens the pgx pool
// the repositories use.
func openDatabase(ctx context.Context, url string, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB, logger); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

func sentryUser(ctx context.Context) *telemetry.UserInfo {
	p := domain.PrincipalFromContext(ctx)
	if p == nil {
		return nil
	}
	return &telemetry.UserInfo{
		ID:       strconv.FormatInt(p.ID, 10),
		Username: p.Username,
		Role:     string(p.Role),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
