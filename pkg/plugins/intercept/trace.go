package intercept

import (
	"context"
	"errors"

	"github.com/platinummonkey/plugkit/pkg/contextkeys"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type traceProxy struct {
	inner  plugins.Plugin
	tracer trace.Tracer
}

// Trace starts one span per execution
func Trace(tracer trace.Tracer) Interceptor {
	return func(p plugins.Plugin) plugins.Plugin {
		if tracer == nil {
			return p
		}
		return &traceProxy{inner: p, tracer: tracer}
	}
}

func (p *traceProxy) Name() string {
	return p.inner.Name()
}

func (p *traceProxy) Execute(ctx context.Context, payload string) (string, error) {
	attrs := []attribute.KeyValue{
		attribute.String("plugin", p.inner.Name()),
		attribute.Int("payload_bytes", len(payload)),
	}
	if runID := contextkeys.GetRunID(ctx); runID != "" {
		attrs = append(attrs, attribute.String("run_id", runID))
	}
	if stage, ok := contextkeys.GetStage(ctx); ok {
		attrs = append(attrs, attribute.Int("stage", stage))
	}

	ctx, span := p.tracer.Start(ctx, "Plugin.Execute", trace.WithAttributes(attrs...))
	defer span.End()

	out, err := p.inner.Execute(ctx, payload)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, plugins.ErrOperationCancelled) {
			span.SetStatus(codes.Error, "cancelled")
		} else {
			span.SetStatus(codes.Error, "plugin failed")
		}
		return out, err
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}
