package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platinummonkey/datahub/pkg/observability"
)

// ErrQueueFull is returned by AsyncLogger.Log when the queue has no room
var ErrQueueFull = errors.New("audit queue full")

// ErrLoggerClosed is returned by AsyncLogger.Log after Close
var ErrLoggerClosed = errors.New("audit logger closed")

// AsyncLoggerConfig configures an AsyncLogger
type AsyncLoggerConfig struct {
	Workers      int           // default 2
	QueueSize    int           // default 1024
	WriteTimeout time.Duration // per event; default 5s
	CloseTimeout time.Duration // drain limit on Close; default 10s
}

// AsyncLogger hands events to a pool of workers writing to next, so a slow
// sink never holds up a request. When the queue is full the event is dropped
// and counted.
type AsyncLogger struct {
	next    Logger
	logger  *observability.Logger
	metrics *observability.Metrics
	timeout time.Duration
	closeIn time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan *Event
	done   chan struct{}
}

// NewAsyncLogger starts the workers. logger and metrics may be nil.
func NewAsyncLogger(next Logger, cfg AsyncLoggerConfig, logger *observability.Logger, metrics *observability.Metrics) *AsyncLogger {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	l := &AsyncLogger{
		next:    next,
		logger:  logger.WithField("component", "audit"),
		metrics: metrics,
		timeout: cfg.WriteTimeout,
		closeIn: cfg.CloseTimeout,
		queue:   make(chan *Event, cfg.QueueSize),
		done:    make(chan struct{}),
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.worker()
		}()
	}
	go func() {
		wg.Wait()
		close(l.done)
	}()

	return l
}

// Log queues event without waiting for it to be written
func (l *AsyncLogger) Log(ctx context.Context, event *Event) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLoggerClosed
	}

	select {
	case l.queue <- event:
		return nil
	default:
		l.count("dropped")
		return ErrQueueFull
	}
}

func (l *AsyncLogger) worker() {
	for event := range l.queue {
		l.write(event)
	}
}

func (l *AsyncLogger) write(event *Event) {
	defer observability.RecoverPanic(l.logger, "audit write")

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.next.Log(ctx, event); err != nil {
		l.count("failed")
		l.logger.WithError(err).WithField("event_type", string(event.Type)).Warn("Failed to write audit event")
		return
	}
	l.count("written")
}

func (l *AsyncLogger) count(result string) {
	if l.metrics != nil {
		l.metrics.AuditEventsTotal.WithLabelValues(result).Inc()
	}
}

// Close stops accepting events, waits for the queue to drain, then closes
// next. If the drain outlasts the close timeout, Close returns an error and
// next is closed once the workers finish.
func (l *AsyncLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	select {
	case <-l.done:
		return l.next.Close()
	case <-time.After(l.closeIn):
		go func() {
			<-l.done
			if err := l.next.Close(); err != nil {
				l.logger.WithError(err).Error("Failed to close audit sink")
			}
		}()
		return fmt.Errorf("audit queue drain timed out after %v", l.closeIn)
	}
}

// Backlog reports how many events are waiting and the queue capacity
func (l *AsyncLogger) Backlog() (queued, capacity int) {
	return len(l.queue), cap(l.queue)
}

// HealthDependency reports the logger degraded once the queue is nine tenths
// full, when events are about to be dropped
func (l *AsyncLogger) HealthDependency() observability.Dependency {
	return observability.Dependency{
		Name: "audit",
		Check: func(context.Context) error {
			queued, capacity := l.Backlog()
			if queued*10 >= capacity*9 {
				return fmt.Errorf("%w: %d of %d audit events queued", observability.ErrDegraded, queued, capacity)
			}
			return nil
		},
	}
}
