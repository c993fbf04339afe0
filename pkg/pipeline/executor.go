package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/platinummonkey/plugkit/pkg/async"
	"github.com/platinummonkey/plugkit/pkg/contextkeys"
	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/platinummonkey/plugkit/pkg/plugins/intercept"
	"github.com/sirupsen/logrus"
)

// Option configures an Executor
type Option func(*Executor)

// WithSink sets where per-plugin log lines go. The default prints to stdout.
func WithSink(sink intercept.Sink) Option {
	return func(e *Executor) {
		e.sink = sink
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithInterceptors adds decorators applied inside the logging proxy
func WithInterceptors(interceptors ...intercept.Interceptor) Option {
	return func(e *Executor) {
		e.interceptors = append(e.interceptors, interceptors...)
	}
}

// WithMetrics records pipeline run outcomes
func WithMetrics(metrics *observability.PluginMetrics) Option {
	return func(e *Executor) {
		e.metrics = metrics
	}
}

// Executor builds pipelines from ordered descriptors
type Executor struct {
	sink         intercept.Sink
	interceptors []intercept.Interceptor
	metrics      *observability.PluginMetrics
	logger       *logrus.Logger
}

// NewExecutor creates a new pipeline executor
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		sink: func(message string) {
			fmt.Fprintln(os.Stdout, message)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = observability.OrDefault(e.logger)
	if e.sink == nil {
		e.sink = func(string) {}
	}
	return e
}

type stage struct {
	name   string
	plugin plugins.Plugin
}

// Pipeline is a sequential composition of proxied plugins. It is meant for a
// single caller; build one per concurrent user.
type Pipeline struct {
	stages  []stage
	metrics *observability.PluginMetrics
	logger  *logrus.Logger
}

// Build instantiates one fresh plugin per descriptor, in the given order, and
// wraps each in the logging proxy.
func (e *Executor) Build(descriptors []plugins.Descriptor) (*Pipeline, error) {
	stages := make([]stage, 0, len(descriptors))

	for _, d := range descriptors {
		if d.New == nil {
			return nil, fmt.Errorf("descriptor %s has no factory", d.Type)
		}

		instance := d.New()
		if instance == nil {
			return nil, fmt.Errorf("factory for %s returned nil", d.Type)
		}

		name := instance.Name()
		sink := e.sink
		decorated := intercept.Chain(instance, e.interceptors...)
		proxied := intercept.Wrap(decorated, func(message string) {
			sink(fmt.Sprintf("[%s] %s", name, message))
		})

		stages = append(stages, stage{name: name, plugin: proxied})
	}

	return &Pipeline{
		stages:  stages,
		metrics: e.metrics,
		logger:  e.logger,
	}, nil
}

// Len returns the number of stages
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names returns the plugin names in execution order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}

// Run threads payload through every stage. No stage starts after ctx is done.
func (p *Pipeline) Run(ctx context.Context, payload string) (string, error) {
	runID := uuid.New().String()
	entry := p.logger.WithField("run_id", runID)
	entry.Debugf("Running pipeline with %d stages", len(p.stages))

	out, err := p.run(contextkeys.WithRunID(ctx, runID), payload, entry)
	p.metrics.ObservePipelineRun(err)
	return out, err
}

func (p *Pipeline) run(ctx context.Context, payload string, entry *logrus.Entry) (string, error) {
	for i, s := range p.stages {
		if ctx.Err() != nil {
			entry.Debugf("Cancelled before stage %d (%s)", i, s.name)
			return "", plugins.Cancelled(ctx)
		}

		next, err := s.plugin.Execute(contextkeys.WithStage(ctx, i), payload)
		if err != nil {
			observability.LoggerWithTraceContext(ctx, entry).
				WithField("plugin", s.name).
				Debugf("Stage %d failed: %v", i, err)
			return "", err
		}
		payload = next
	}

	return payload, nil
}

// RunAll runs each payload through its own freshly built pipeline, with at
// most workers concurrent runs. Outputs and errors are indexed like payloads.
func (e *Executor) RunAll(ctx context.Context, descriptors []plugins.Descriptor, payloads []string, workers int) ([]string, []error) {
	outputs, errs := async.Map(ctx, payloads, workers, func(ctx context.Context, payload string) (string, error) {
		p, err := e.Build(descriptors)
		if err != nil {
			return "", err
		}
		return p.Run(ctx, payload)
	})

	// payloads never started only carry the bare context error
	for i, err := range errs {
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) && !errors.Is(err, plugins.ErrOperationCancelled) {
			errs[i] = plugins.Cancelled(ctx)
		}
	}
	return outputs, errs
}
