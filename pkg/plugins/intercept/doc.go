// Package intercept decorates plugins with cross-cutting behavior.
//
// Each decorator is a concrete type that holds the inner plugin and forwards
// Name and Execute, adding its work around the call:
//
//	p := intercept.Chain(plugin,
//		intercept.Metrics(metrics),
//		intercept.Trace(observability.Tracer()),
//	)
//	logged := intercept.Wrap(p, func(msg string) { fmt.Println(msg) })
//
// Wrap logs "{name} completed in {elapsed}" on success and
// "{name} failed after {elapsed}: {err}" on failure, then returns the inner
// error unchanged.
package intercept
