// Package jobs runs the service's periodic background work on a cron
// schedule: refreshing the by-status business gauges and the connection
// pool gauges.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

// StatusCounter counts records by status
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// Scheduler owns the cron runner and the jobs registered on it
type Scheduler struct {
	cron        *cron.Cron
	metrics     *observability.Metrics
	logger      *observability.Logger
	submissions StatusCounter
	apps        StatusCounter
	db          *sql.DB
	timeout     time.Duration
}

// Options wires a Scheduler. DB is optional; without it the pool gauges
// are not refreshed.
type Options struct {
	Metrics      *observability.Metrics
	Logger       *observability.Logger
	Submissions  StatusCounter
	Applications StatusCounter
	DB           *sql.DB
	Timeout      time.Duration
}

// NewScheduler creates a scheduler. Nothing runs until Start.
func NewScheduler(opts Options) *Scheduler {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	cl := cronLogger{opts.Logger.WithField("component", "jobs")}
	return &Scheduler{
		cron:        cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		metrics:     opts.Metrics,
		logger:      cl.logger,
		submissions: opts.Submissions,
		apps:        opts.Applications,
		db:          opts.DB,
		timeout:     timeout,
	}
}

// ScheduleGaugeRefresh runs RefreshGauges on spec, any robfig/cron
// expression such as "@every 1m" or "*/5 * * * *".
func (s *Scheduler) ScheduleGaugeRefresh(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		defer observability.RecoverPanic(s.logger, "gauge refresh")

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.RefreshGauges(ctx); err != nil {
			s.logger.WithError(err).Warn("Gauge refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule gauge refresh %q: %w", spec, err)
	}
	return nil
}

// RefreshGauges recomputes the by-status gauges and copies the pool stats.
// Both status tables are attempted even when the first fails.
func (s *Scheduler) RefreshGauges(ctx context.Context) error {
	var errs []error

	if s.submissions != nil {
		if err := refresh(ctx, s.submissions, s.metrics.SubmissionsByStatus, submissionStatuses()); err != nil {
			errs = append(errs, fmt.Errorf("submissions: %w", err))
		}
	}
	if s.apps != nil {
		if err := refresh(ctx, s.apps, s.metrics.ApplicationsByStatus, applicationStatuses()); err != nil {
			errs = append(errs, fmt.Errorf("applications: %w", err))
		}
	}
	if s.db != nil {
		s.metrics.UpdateDBStats(s.db.Stats())
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Debug("Gauges refreshed")
	return nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Job scheduler started")
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("job scheduler stop: %w", ctx.Err())
	}
}

func refresh(ctx context.Context, counter StatusCounter, gauge *prometheus.GaugeVec, statuses []string) error {
	counts, err := counter.CountByStatus(ctx)
	if err != nil {
		return err
	}
	observability.SetStatusCounts(gauge, statuses, counts)
	return nil
}

func submissionStatuses() []string {
	var out []string
	for _, s := range submissions.AllStatuses() {
		out = append(out, string(s))
	}
	return out
}

func applicationStatuses() []string {
	var out []string
	for _, s := range applications.AllStatuses() {
		out = append(out, string(s))
	}
	return out
}

// cronLogger sends robfig/cron's own logging to the service logger. Its
// routine scheduling chatter goes out at debug level.
type cronLogger struct {
	logger *observability.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(pairs(keysAndValues)).WithError(err).Error(msg)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
