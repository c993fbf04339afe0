package intercept

import (
	"context"
	"time"

	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/platinummonkey/plugkit/pkg/plugins"
)

type metricsProxy struct {
	inner   plugins.Plugin
	metrics *observability.PluginMetrics
}

// Metrics records an execution counter and duration histogram per plugin
func Metrics(metrics *observability.PluginMetrics) Interceptor {
	return func(p plugins.Plugin) plugins.Plugin {
		if metrics == nil {
			return p
		}
		return &metricsProxy{inner: p, metrics: metrics}
	}
}

func (p *metricsProxy) Name() string {
	return p.inner.Name()
}

func (p *metricsProxy) Execute(ctx context.Context, payload string) (string, error) {
	start := time.Now()
	out, err := p.inner.Execute(ctx, payload)
	p.metrics.ObserveExecution(p.inner.Name(), time.Since(start), err)
	return out, err
}
