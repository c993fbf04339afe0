package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/platinummonkey/plugkit/pkg/builtin"
	"github.com/platinummonkey/plugkit/pkg/config"
	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/platinummonkey/plugkit/pkg/pipeline"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/platinummonkey/plugkit/pkg/plugins/intercept"
	"github.com/platinummonkey/plugkit/pkg/sandbox"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// App holds what the commands share for one invocation
type App struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Metrics *observability.PluginMetrics
	Health  *observability.HealthChecker

	// Modules are the plugin modules the host discovers
	Modules []*plugins.Module

	// LogOutput receives diagnostics. Defaults to stderr.
	LogOutput io.Writer

	gatherer  *prometheus.Registry
	inspector *sandbox.Inspector
	shutdown  *observability.ShutdownManager
	server    *observability.MetricsServer
}

// NewApp creates an App that discovers the built-in plugins
func NewApp() *App {
	return &App{
		Modules:   []*plugins.Module{builtin.Module()},
		LogOutput: os.Stderr,
	}
}

// NewRootCommand creates the plugkit root command
func NewRootCommand(app *App) *cobra.Command {
	var (
		configPath  string
		logLevel    string
		metricsAddr string
	)

	rootCmd := &cobra.Command{
		Use:   "plugkit",
		Short: "plugkit - plugin discovery, pipelines and isolated inspection",
		Long: `plugkit discovers the plugin types declared by its modules, orders them by
their metadata, and runs them as a pipeline with every call logged and timed.

Module images on disk can be inspected in an isolated context: their plugin
types are listed from source without ever loading them into the host.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("log-level") {
				if !observability.ValidLevel(logLevel) {
					return fmt.Errorf("invalid log level: %s", logLevel)
				}
				cfg.Observability.LogLevel = logLevel
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Observability.MetricsAddr = metricsAddr
			}

			return app.setup(cmd.Context(), cfg)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\n", BuildTime))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")

	rootCmd.AddCommand(newListCommand(app))
	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newInspectCommand(app))
	rootCmd.AddCommand(newTourCommand(app))

	return rootCmd
}

// Execute runs the root command until it returns or the process is
// interrupted
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp()
	err := NewRootCommand(app).ExecuteContext(ctx)
	if closeErr := app.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setup builds the logger, metrics, tracing and optional metrics server
func (a *App) setup(ctx context.Context, cfg *config.Config) error {
	a.Config = cfg
	a.Logger = setupLogger(cfg.Observability.LogLevel, a.LogOutput)

	a.gatherer = prometheus.NewRegistry()
	a.Metrics = observability.NewPluginMetrics(a.gatherer)
	a.Health = observability.NewHealthChecker(Version)

	a.inspector = sandbox.NewInspector(cfg.Inspector.CacheSize, cfg.Inspector.CacheTTL, a.Logger)
	a.inspector.SetMetrics(a.Metrics)

	a.shutdown = observability.NewShutdownManager(a.Logger, cfg.Observability.ShutdownTimeout)

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server, err := observability.ServeMetrics(addr, a.gatherer, a.Health, a.Logger)
		if err != nil {
			return err
		}
		a.server = server
		a.shutdown.Register("metrics server", server.Shutdown)
	}

	otelShutdown, err := observability.InitOTel(ctx, cfg.OTel(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.shutdown.Register("tracer provider", otelShutdown)

	return nil
}

// MetricsAddr returns the address the metrics server listens on, or "" when
// it is not running
func (a *App) MetricsAddr() string {
	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}

// Close stops the metrics server and flushes tracing
func (a *App) Close() error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown.Shutdown()
}

func setupLogger(logLevel string, output io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// discover returns the ordered descriptors of every module
func (a *App) discover() ([]plugins.Descriptor, error) {
	registry := plugins.NewRegistry(a.Logger)
	registry.SetMetrics(a.Metrics)

	for _, m := range a.Modules {
		if err := registry.AddModule(m); err != nil {
			return nil, err
		}
	}

	descriptors, err := registry.Discover()
	if err != nil {
		// skipped declarations are already logged
		a.Logger.Debugf("Discovery finished with skips: %v", err)
	}
	return descriptors, nil
}

// executor builds pipelines whose per-plugin lines go to out
func (a *App) executor(out io.Writer) *pipeline.Executor {
	var mu sync.Mutex
	return pipeline.NewExecutor(
		pipeline.WithSink(func(message string) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(out, message)
		}),
		pipeline.WithLogger(a.Logger),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithInterceptors(
			intercept.Metrics(a.Metrics),
			intercept.Trace(observability.Tracer()),
		),
	)
}

// newContext creates an isolated context configured from the app
func (a *App) newContext() *sandbox.Context {
	return sandbox.New(
		sandbox.WithContract(a.Config.Contract),
		sandbox.WithLogger(a.Logger),
		sandbox.WithInspector(a.inspector),
		sandbox.WithMetrics(a.Metrics),
		sandbox.WithTempDir(a.Config.Inspector.TempDir),
	)
}
