package intercept

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/plugkit/pkg/plugins"
)

// Sink receives one formatted message per intercepted call
type Sink func(message string)

// Interceptor decorates a plugin
type Interceptor func(plugins.Plugin) plugins.Plugin

// LoggingProxy times every Execute call and reports it to a sink
type LoggingProxy struct {
	inner plugins.Plugin
	log   Sink
	now   func() time.Time
}

// Wrap returns p decorated with timing and logging. A nil sink discards messages.
func Wrap(p plugins.Plugin, log Sink) *LoggingProxy {
	if log == nil {
		log = func(string) {}
	}
	return &LoggingProxy{inner: p, log: log, now: time.Now}
}

// WrapAsync wraps an asynchronously completing plugin. Timing covers the full
// completion, not only Start.
func WrapAsync(p plugins.AsyncPlugin, log Sink) *LoggingProxy {
	return Wrap(plugins.Await(p), log)
}

func (p *LoggingProxy) Name() string {
	return p.inner.Name()
}

// Execute forwards to the wrapped plugin. The error is returned as is.
func (p *LoggingProxy) Execute(ctx context.Context, payload string) (string, error) {
	start := p.now()
	out, err := p.inner.Execute(ctx, payload)
	elapsed := p.now().Sub(start)

	if err != nil {
		p.log(fmt.Sprintf("%s failed after %s: %v", p.inner.Name(), elapsed, err))
		return out, err
	}

	p.log(fmt.Sprintf("%s completed in %s", p.inner.Name(), elapsed))
	return out, nil
}

// Unwrap returns the decorated plugin
func (p *LoggingProxy) Unwrap() plugins.Plugin {
	return p.inner
}

// Chain applies interceptors in order, so the first one ends up innermost
func Chain(p plugins.Plugin, interceptors ...Interceptor) plugins.Plugin {
	for _, interceptor := range interceptors {
		if interceptor != nil {
			p = interceptor(p)
		}
	}
	return p
}
