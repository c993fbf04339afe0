// Package pipeline composes discovered plugins into a sequential payload
// pipeline.
//
// # Overview
//
// An Executor turns ordered descriptors into a Pipeline. Every Build creates
// fresh plugin instances and wraps each in the logging proxy, whose messages
// reach the sink prefixed with the plugin name:
//
//	[Uppercase] Uppercase completed in 3.1µs
//
// Run hands the output of stage i to stage i+1. The context is checked before
// every stage; once it is done no further stage starts and Run fails with an
// error matching plugins.ErrOperationCancelled. Plugin errors are returned
// unchanged.
//
// # Usage Example
//
//	executor := pipeline.NewExecutor(
//		pipeline.WithLogger(logger),
//		pipeline.WithInterceptors(intercept.Metrics(metrics)),
//	)
//	p, err := executor.Build(descriptors)
//	if err != nil {
//		return err
//	}
//	out, err := p.Run(ctx, "hello from MAUI")
//
// A Pipeline serves one caller at a time. RunAll builds one per payload and
// runs them on a bounded worker pool.
//
// # Related Packages
//
//   - pkg/plugins: Descriptors and the plugin contract
//   - pkg/plugins/intercept: Logging proxy and interceptors
//   - pkg/async: Worker pool behind RunAll
package pipeline
