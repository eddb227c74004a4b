package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/datahub/pkg/api"
	"github.com/platinummonkey/datahub/pkg/audit"
	"github.com/platinummonkey/datahub/pkg/config"
	"github.com/platinummonkey/datahub/pkg/jobs"
	"github.com/platinummonkey/datahub/pkg/middleware"
	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/session"
	"github.com/platinummonkey/datahub/pkg/store"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", "datahub").
		WithField("version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	db, err := store.Open(ctx, store.Options{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	logger.Info("Connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return err
		}
		logger.Info("Database schema is up to date")
	}

	redisClient, err := session.NewClient(ctx, session.Options{
		URL:        cfg.Redis.URL,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		MaxRetries: cfg.Redis.MaxRetries,
		PoolSize:   cfg.Redis.PoolSize,
	})
	if err != nil {
		db.Close()
		return err
	}
	logger.Info("Connected to Redis")

	auditLogger, err := newAuditLogger(cfg.Audit, logger, metrics)
	if err != nil {
		db.Close()
		redisClient.Close()
		return err
	}

	users := store.NewCachedUserStore(store.NewUserStore(db, metrics), cfg.Cache.UserCacheSize, cfg.Cache.UserCacheTTL, metrics)
	applicationStore := store.NewApplicationStore(db, metrics)
	submissionStore := store.NewSubmissionStore(db, metrics)

	var limiter *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimitMiddleware(redisClient)
		limiter.SetFailOpen(cfg.RateLimit.FailOpen)
	}

	apiServer := api.NewServer(api.Options{
		Sessions:      session.NewStore(redisClient),
		Users:         users,
		Applications:  applicationStore,
		Submissions:   submissionStore,
		RateLimit:     limiter,
		Audit:         auditLogger,
		Metrics:       metrics,
		Logger:        logger,
		ListCacheSize: cfg.Cache.ListCacheSize,
		ListCacheTTL:  cfg.Cache.ListCacheTTL,
	})

	scheduler := jobs.NewScheduler(jobs.Options{
		Metrics:      metrics,
		Logger:       logger,
		Submissions:  submissionStore,
		Applications: applicationStore,
		DB:           db,
	})
	if err := scheduler.ScheduleGaugeRefresh(cfg.Jobs.GaugeSchedule); err != nil {
		return fmt.Errorf("failed to schedule gauge refresh: %w", err)
	}

	healthMux := http.NewServeMux()
	dependencies := []observability.Dependency{
		observability.DatabaseDependency(db),
		observability.RedisDependency(redisClient),
	}
	if async, ok := auditLogger.(*audit.AsyncLogger); ok {
		dependencies = append(dependencies, async.HealthDependency())
	}
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(version, dependencies...))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:     healthMux,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, httpServer, healthServer)
	shutdown.Register("scheduler", scheduler.Stop)
	shutdown.Register("audit", func(context.Context) error { return auditLogger.Close() })
	shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
	shutdown.Register("database", func(context.Context) error { return db.Close() })
	shutdown.Register("otel", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	// An initial refresh so the gauges are populated before the first tick
	if err := scheduler.RefreshGauges(ctx); err != nil {
		logger.WithError(err).Warn("Initial gauge refresh failed")
	}
	scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("API server listening on %s", httpServer.Addr)
		return serve(httpServer)
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		return serve(healthServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return shutdown.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s failed: %w", srv.Addr, err)
	}
	return nil
}

// newAuditLogger writes audit events to stdout, to rotating files, or both.
// Writes happen off the request path.
func newAuditLogger(cfg config.AuditConfig, logger *observability.Logger, metrics *observability.Metrics) (audit.Logger, error) {
	var loggers []audit.Logger
	if cfg.Stdout {
		loggers = append(loggers, audit.NewStreamLogger(os.Stdout))
	}
	if cfg.Dir != "" {
		fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{
			BasePath: cfg.Dir,
			MaxSize:  cfg.MaxSize,
			MaxFiles: cfg.MaxFiles,
		})
		if err != nil {
			return nil, err
		}
		loggers = append(loggers, fileLogger)
	}

	var sink audit.Logger
	switch len(loggers) {
	case 0:
		return audit.NoOpLogger{}, nil
	case 1:
		sink = loggers[0]
	default:
		sink = audit.NewMultiLogger(loggers...)
	}
	return audit.NewAsyncLogger(sink, audit.AsyncLoggerConfig{}, logger, metrics), nil
}
