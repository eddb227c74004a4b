package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultShutdownTimeout = 30 * time.Second

// ShutdownFunc releases one resource
type ShutdownFunc func(context.Context) error

type shutdownStep struct {
	name string
	fn   ShutdownFunc
}

// ShutdownManager stops the HTTP servers, then releases resources one at a
// time in registration order, so a step may rely on everything registered
// after it still being open.
type ShutdownManager struct {
	logger  *Logger
	servers []*http.Server
	timeout time.Duration

	mu    sync.Mutex
	steps []shutdownStep
}

// NewShutdownManager creates a shutdown manager. A zero timeout means 30s.
func NewShutdownManager(logger *Logger, timeout time.Duration, servers ...*http.Server) *ShutdownManager {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &ShutdownManager{
		logger:  logger,
		servers: servers,
		timeout: timeout,
	}
}

// Register adds a named step run after the servers stop
func (sm *ShutdownManager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.steps = append(sm.steps, shutdownStep{name: name, fn: fn})
}

// Shutdown drains the servers concurrently, then runs the steps in order.
// Every step runs even if an earlier one failed; once the timeout expires
// the remaining steps are skipped.
func (sm *ShutdownManager) Shutdown(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, sm.timeout)
	defer cancel()

	var (
		errs []error
		mu   sync.Mutex
		wg   sync.WaitGroup
	)
	for _, server := range sm.servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sm.logger.WithField("addr", server.Addr).Info("Shutting down HTTP server")
			if err := server.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("http server %s: %w", server.Addr, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sm.mu.Lock()
	steps := append([]shutdownStep(nil), sm.steps...)
	sm.mu.Unlock()

	for i, step := range steps {
		if ctx.Err() != nil {
			skipped := len(steps) - i
			sm.logger.WithField("skipped", skipped).Warn("Shutdown timeout reached")
			errs = append(errs, fmt.Errorf("shutdown timeout reached with %d steps left", skipped))
			break
		}

		start := time.Now()
		err := step.fn(ctx)
		entry := sm.logger.WithFields(map[string]interface{}{
			"step":        step.name,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Error("Shutdown step failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		entry.Debug("Shutdown step complete")
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	sm.logger.Info("Graceful shutdown complete")
	return nil
}
