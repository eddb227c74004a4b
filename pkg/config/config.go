package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/datahub/pkg/observability"
)

// ConfigFileEnv names the variable pointing at an optional YAML config file
const ConfigFileEnv = "DATAHUB_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Cache         CacheConfig         `yaml:"cache"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Audit         AuditConfig         `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// RedisConfig holds Redis settings for sessions and rate limits
type RedisConfig struct {
	URL        string `yaml:"url"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	MaxRetries int    `yaml:"max_retries"`
	PoolSize   int    `yaml:"pool_size"`
}

// CacheConfig holds in-process cache settings
type CacheConfig struct {
	UserCacheSize int           `yaml:"user_cache_size"`
	UserCacheTTL  time.Duration `yaml:"user_cache_ttl"`
	ListCacheSize int           `yaml:"list_cache_size"`
	ListCacheTTL  time.Duration `yaml:"list_cache_ttl"`
}

// RateLimitConfig holds request rate limits
type RateLimitConfig struct {
	Enabled  bool `yaml:"enabled"`
	FailOpen bool `yaml:"fail_open"`
}

// JobsConfig holds scheduled job settings
type JobsConfig struct {
	GaugeSchedule string `yaml:"gauge_schedule"`
}

// AuditConfig holds audit trail settings. With no Dir, events go to
// stdout only.
type AuditConfig struct {
	Dir      string `yaml:"dir"`
	MaxSize  int64  `yaml:"max_size"`
	MaxFiles int    `yaml:"max_files"`
	Stdout   bool   `yaml:"stdout"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel     observability.LogLevel `yaml:"-"`
	LogLevelName string                 `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"` // Use insecure gRPC connection
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:        "redis://localhost:6379/0",
			DB:         -1,
			MaxRetries: 3,
			PoolSize:   10,
		},
		Cache: CacheConfig{
			UserCacheSize: 1000,
			UserCacheTTL:  time.Minute,
			ListCacheSize: 500,
			ListCacheTTL:  5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			FailOpen: true,
		},
		Jobs: JobsConfig{
			GaugeSchedule: "@every 1m",
		},
		Audit: AuditConfig{
			MaxSize:  100 * 1024 * 1024,
			MaxFiles: 10,
			Stdout:   true,
		},
		Observability: ObservabilityConfig{
			LogLevelName:       "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "datahub",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1,
		},
	}
}

// LoadConfig loads configuration from the optional YAML file named by
// DATAHUB_CONFIG_FILE, then applies environment variables on top
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.Observability.LogLevel = observability.ParseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path onto c
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides c with any DATAHUB_* variables that are set
func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("DATAHUB_HOST", s.Host)
	s.Port = getEnv("DATAHUB_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("DATAHUB_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("DATAHUB_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("DATAHUB_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("DATAHUB_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.HealthPort = getEnv("DATAHUB_HEALTH_PORT", s.HealthPort)

	d := &c.Database
	d.URL = getEnv("DATAHUB_POSTGRES_URL", d.URL)
	d.MaxOpenConns = getEnvInt("DATAHUB_POSTGRES_MAX_CONNS", d.MaxOpenConns)
	d.MaxIdleConns = getEnvInt("DATAHUB_POSTGRES_IDLE_CONNS", d.MaxIdleConns)
	d.ConnMaxLifetime = getEnvDuration("DATAHUB_POSTGRES_CONN_LIFETIME", d.ConnMaxLifetime)
	d.AutoMigrate = getEnvBool("DATAHUB_AUTO_MIGRATE", d.AutoMigrate)

	r := &c.Redis
	r.URL = getEnv("DATAHUB_REDIS_URL", r.URL)
	r.Password = getEnv("DATAHUB_REDIS_PASSWORD", r.Password)
	r.DB = getEnvInt("DATAHUB_REDIS_DB", r.DB)
	r.MaxRetries = getEnvInt("DATAHUB_REDIS_MAX_RETRIES", r.MaxRetries)
	r.PoolSize = getEnvInt("DATAHUB_REDIS_POOL_SIZE", r.PoolSize)

	ca := &c.Cache
	ca.UserCacheSize = getEnvInt("DATAHUB_USER_CACHE_SIZE", ca.UserCacheSize)
	ca.UserCacheTTL = getEnvDuration("DATAHUB_USER_CACHE_TTL", ca.UserCacheTTL)
	ca.ListCacheSize = getEnvInt("DATAHUB_LIST_CACHE_SIZE", ca.ListCacheSize)
	ca.ListCacheTTL = getEnvDuration("DATAHUB_LIST_CACHE_TTL", ca.ListCacheTTL)

	c.RateLimit.Enabled = getEnvBool("DATAHUB_RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.FailOpen = getEnvBool("DATAHUB_RATE_LIMIT_FAIL_OPEN", c.RateLimit.FailOpen)

	c.Jobs.GaugeSchedule = getEnv("DATAHUB_GAUGE_SCHEDULE", c.Jobs.GaugeSchedule)

	a := &c.Audit
	a.Dir = getEnv("DATAHUB_AUDIT_DIR", a.Dir)
	a.MaxSize = int64(getEnvInt("DATAHUB_AUDIT_MAX_SIZE", int(a.MaxSize)))
	a.MaxFiles = getEnvInt("DATAHUB_AUDIT_MAX_FILES", a.MaxFiles)
	a.Stdout = getEnvBool("DATAHUB_AUDIT_STDOUT", a.Stdout)

	o := &c.Observability
	o.LogLevelName = getEnv("DATAHUB_LOG_LEVEL", o.LogLevelName)
	o.MetricsEnabled = getEnvBool("DATAHUB_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("DATAHUB_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("DATAHUB_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("DATAHUB_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("DATAHUB_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("DATAHUB_OTEL_INSECURE", o.OTelInsecure)
	o.OTelSampleRatio = getEnvFloat("DATAHUB_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
}

// Validate checks if the configuration is valid. It reports every problem
// it finds, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, fmt.Errorf("server port is required"))
	}
	if c.Server.HealthPort == "" {
		errs = append(errs, fmt.Errorf("health port is required"))
	}
	if c.Server.Port != "" && c.Server.Port == c.Server.HealthPort {
		errs = append(errs, fmt.Errorf("server port and health port must be different"))
	}

	if c.Database.URL == "" {
		errs = append(errs, fmt.Errorf("postgres URL is required (DATAHUB_POSTGRES_URL)"))
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		errs = append(errs, fmt.Errorf("database connection limits must not be negative"))
	}

	if c.Redis.URL == "" {
		errs = append(errs, fmt.Errorf("redis URL is required (DATAHUB_REDIS_URL)"))
	}

	if c.Cache.UserCacheSize <= 0 || c.Cache.ListCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache sizes must be positive"))
	}

	if _, err := cron.ParseStandard(c.Jobs.GaugeSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid gauge schedule %q: %w", c.Jobs.GaugeSchedule, err))
	}

	if c.Audit.MaxSize < 0 || c.Audit.MaxFiles < 0 {
		errs = append(errs, fmt.Errorf("audit rotation limits must not be negative"))
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			errs = append(errs, fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled"))
		}
		if c.Observability.OTelServiceName == "" {
			errs = append(errs, fmt.Errorf("OpenTelemetry service name is required when OTel is enabled"))
		}
		if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
			errs = append(errs, fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %v", r))
		}
	}

	return errors.Join(errs...)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
