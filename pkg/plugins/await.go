package plugins

import (
	"context"
	"fmt"
)

// Await adapts an AsyncPlugin to the synchronous contract. Execute blocks until
// the plugin delivers its Result or ctx is done, whichever comes first.
func Await(p AsyncPlugin) Plugin {
	return &awaitedPlugin{inner: p}
}

type awaitedPlugin struct {
	inner AsyncPlugin
}

func (a *awaitedPlugin) Name() string {
	return a.inner.Name()
}

func (a *awaitedPlugin) Execute(ctx context.Context, payload string) (string, error) {
	ch := a.inner.Start(ctx, payload)
	if ch == nil {
		return "", fmt.Errorf("plugin %s returned no result channel", a.inner.Name())
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return "", fmt.Errorf("plugin %s closed its result channel without a result", a.inner.Name())
		}
		return res.Payload, res.Err
	case <-ctx.Done():
		return "", Cancelled(ctx)
	}
}

// Unwrap returns the asynchronous plugin behind the adapter
func (a *awaitedPlugin) Unwrap() AsyncPlugin {
	return a.inner
}
