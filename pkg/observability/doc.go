// Package observability provides logrus logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Logging
//
//	logger := observability.NewLogger("debug", os.Stderr)
//	logger.WithField("plugin", "Uppercase").Info("loaded")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewPluginMetrics(registry)
//	metrics.ObserveExecution("Uppercase", elapsed, err)
//
// Every Observe method is safe on a nil *PluginMetrics, so components accept an
// optional metrics value without branching.
//
// # OpenTelemetry
//
//	shutdown, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "localhost:4317",
//		ServiceName: "plugkit",
//		Insecure:    true,
//	}, logger)
//	defer shutdown(ctx)
//
// # Health and Shutdown
//
//	checker := observability.NewHealthChecker(version)
//	checker.Register("sandbox", watcher.Healthy)
//	server, err := observability.ServeMetrics(":9090", registry, checker, logger)
//
//	sm := observability.NewShutdownManager(logger, 10*time.Second)
//	sm.Register("metrics server", server.Shutdown)
//	sm.Register("tracer provider", shutdownTracing)
//	err = sm.Shutdown()
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/plugins/intercept: Metrics and tracing decorators
package observability
