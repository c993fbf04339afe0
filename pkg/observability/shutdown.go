package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ShutdownFunc is a function to call during shutdown
type ShutdownFunc func(context.Context) error

type shutdownStep struct {
	name string
	fn   ShutdownFunc
}

// ShutdownManager releases a command's resources once, concurrently and
// under a shared timeout
type ShutdownManager struct {
	logger  *logrus.Logger
	timeout time.Duration

	mu    sync.Mutex
	steps []shutdownStep
	done  bool
}

// NewShutdownManager creates a new shutdown manager. A zero timeout means 30s.
func NewShutdownManager(logger *logrus.Logger, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  OrDefault(logger),
		timeout: timeout,
	}
}

// Register adds a named step. Steps registered after Shutdown has run are
// called immediately.
func (sm *ShutdownManager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	if !sm.done {
		sm.steps = append(sm.steps, shutdownStep{name: name, fn: fn})
		sm.mu.Unlock()
		return
	}
	sm.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		sm.logger.WithError(err).Errorf("Late shutdown of %s failed", name)
	}
}

// Shutdown runs every registered step. Later calls return nil.
func (sm *ShutdownManager) Shutdown() error {
	sm.mu.Lock()
	if sm.done {
		sm.mu.Unlock()
		return nil
	}
	sm.done = true
	steps := sm.steps
	sm.steps = nil
	sm.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	var (
		g    errgroup.Group
		errs = make([]error, len(steps))
	)
	for i, step := range steps {
		g.Go(func() error {
			sm.logger.Debugf("Shutting down %s", step.name)
			if err := step.fn(ctx); err != nil {
				sm.logger.WithError(err).Errorf("Shutdown of %s failed", step.name)
				errs[i] = fmt.Errorf("%s: %w", step.name, err)
			}
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		sm.logger.Warn("Shutdown timeout reached, forcing shutdown")
		return fmt.Errorf("shutdown timeout reached after %s", sm.timeout)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown completed with errors: %w", err)
	}

	sm.logger.Debug("Graceful shutdown complete")
	return nil
}
