// Package config loads service configuration.
//
// Values come from three layers, later ones winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file named by DATAHUB_CONFIG_FILE
//  3. DATAHUB_* environment variables
//
// # Environment
//
// Server settings:
//
//	DATAHUB_HOST="0.0.0.0"
//	DATAHUB_PORT="8080"
//	DATAHUB_HEALTH_PORT="9090"
//	DATAHUB_READ_TIMEOUT="15s"
//	DATAHUB_SHUTDOWN_TIMEOUT="30s"
//
// Storage settings:
//
//	DATAHUB_POSTGRES_URL="postgres://localhost/datahub?sslmode=disable"
//	DATAHUB_POSTGRES_MAX_CONNS="20"
//	DATAHUB_AUTO_MIGRATE="true"
//	DATAHUB_REDIS_URL="redis://localhost:6379/0"
//
// Cache and rate limit settings:
//
//	DATAHUB_USER_CACHE_TTL="1m"
//	DATAHUB_LIST_CACHE_TTL="5s"
//	DATAHUB_RATE_LIMIT_ENABLED="true"
//
// Jobs:
//
//	DATAHUB_GAUGE_SCHEDULE="@every 1m"  # any robfig/cron spec
//
// Observability settings:
//
//	DATAHUB_LOG_LEVEL="info"  # debug, info, warn, error
//	DATAHUB_OTEL_ENABLED="true"
//	DATAHUB_OTEL_ENDPOINT="otel-collector:4317"
//
// # File
//
//	server:
//	  port: "8080"
//	  read_timeout: 15s
//	database:
//	  url: postgres://localhost/datahub
//	jobs:
//	  gauge_schedule: "*/5 * * * *"
package config
