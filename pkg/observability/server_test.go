package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPluginMetrics(registry)
	metrics.ObservePipelineRun(nil)

	server, err := ServeMetrics("127.0.0.1:0", registry, NewHealthChecker("test"), NewLogger("error", &bytes.Buffer{}))
	require.NoError(t, err)

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "plugkit_pipeline_runs_total")

	resp, err = http.Get("http://" + server.Addr() + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Shutdown(context.Background()))

	_, err = http.Get("http://" + server.Addr() + "/metrics")
	assert.Error(t, err)
}

func TestServeMetrics_BadAddr(t *testing.T) {
	_, err := ServeMetrics("not-an-addr", prometheus.NewRegistry(), NewHealthChecker("test"), nil)
	assert.ErrorContains(t, err, "failed to listen")
}
