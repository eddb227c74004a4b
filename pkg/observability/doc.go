// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks and graceful shutdown.
//
// # Structured Logging
//
// Logger wraps logrus with a JSON formatter:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("permission", "dashboard:view").Info("permission denied")
//
// Request-scoped logging picks up the request and user IDs set by the HTTP
// middleware:
//
//	observability.FromContext(r.Context()).Warn("submission not found")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordPermissionCheck("data_submission", "review", allowed)
//	metrics.RecordFormMode("Edit")
//
// HTTPMetricsMiddleware labels requests with the gorilla/mux route template.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version,
//		observability.DatabaseDependency(db),
//		observability.RedisDependency(redisClient),
//	)
//	observability.RegisterHealthRoutes(mux, checker)
//
// Only a failing critical dependency (the database) makes readiness fail;
// anything else degrades the service.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "datahub",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
//	ctx, span := observability.StartSpan(ctx, "authz.check", attribute.String("authz.resource", r))
//	defer span.End()
//
// # Graceful Shutdown
//
// Servers drain first, then each registered step runs in order:
//
//	sm := observability.NewShutdownManager(logger, 30*time.Second, apiServer, healthServer)
//	sm.Register("scheduler", scheduler.Stop)
//	sm.Register("database", func(context.Context) error { return db.Close() })
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request ID and logging middleware
package observability
