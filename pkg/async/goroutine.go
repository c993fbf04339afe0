package async

import (
	"context"
	"sync"
	"time"

	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/sirupsen/logrus"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Optional timeout (zero means none)
// - Error logging
//
// Example:
//
//	SafeGo(ctx, 0, "image watcher", logger, func(ctx context.Context) error {
//	    return watcher.Run(ctx)
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, logger *logrus.Logger, fn func(context.Context) error) <-chan struct{} {
	logger = observability.OrDefault(logger)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		defer observability.RecoverPanic(logger, taskName)

		if err := fn(ctx); err != nil {
			logger.WithField("task", taskName).Errorf("Task failed: %v", err)
		}
	}()

	return done
}

// Map runs fn over items with at most workers goroutines. Results and errors
// are indexed like items. Items not started before ctx is done get ctx's error.
//
// Example:
//
//	outputs, errs := Map(ctx, payloads, 4, func(ctx context.Context, p string) (string, error) {
//	    return pipeline.Run(ctx, p)
//	})
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error)) ([]R, []error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, item := range items {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if err := observability.MustRecover(recover()); err != nil {
					errs[i] = err
				}
			}()

			results[i], errs[i] = fn(ctx, item)
		}(i, item)
	}
	wg.Wait()

	return results, errs
}
