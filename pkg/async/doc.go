// Package async provides safe concurrent execution primitives.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with panic recovery
//
//	done := async.SafeGo(ctx, 0, "image watcher", logger, func(ctx context.Context) error {
//		return watcher.Run(ctx)
//	})
//	<-done
//
// Map: Bounded concurrent map that keeps input order
//
//	outputs, errs := async.Map(ctx, payloads, 4, run)
//
// # Related Packages
//
//   - pkg/pipeline: Uses Map for RunAll
//   - pkg/cli: Uses SafeGo for watch mode
package async
