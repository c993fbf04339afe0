package sandbox

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInspector_Defaults(t *testing.T) {
	i := NewInspector(0, 0, nil)
	assert.NotNil(t, i.log)
	assert.Equal(t, 0, i.Len())
}

func TestInspector_Caches(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewPluginMetrics(registry)

	i := NewInspector(4, 0, nil)
	i.SetMetrics(metrics)

	src, err := ReadSource("testdata/textplugins")
	require.NoError(t, err)

	first, err := i.Inspect(src, plugins.ContractName)
	require.NoError(t, err)
	second, err := i.Inspect(src, plugins.ContractName)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// the contract is part of the key
	other, err := i.Inspect(src, "fmt.Stringer")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, i.Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InspectorCacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.InspectorCacheMisses))

	i.Purge()
	assert.Equal(t, 0, i.Len())
}

func TestInspector_ErrorsAreNotCached(t *testing.T) {
	i := NewInspector(4, 0, nil)
	src := sourceOf("example.com/bad", map[string]string{"bad.go": "package bad\nfunc {\n"})
	src.Digest = "bad"

	_, err := i.Inspect(src, plugins.ContractName)
	require.Error(t, err)
	assert.Equal(t, 0, i.Len())
}

func TestInspector_Expiry(t *testing.T) {
	i := NewInspector(4, 20*time.Millisecond, nil)
	parses := 0
	i.parse = func(src *Source, contract string) (*Report, error) {
		parses++
		return &Report{Module: src.Manifest.Module}, nil
	}

	src := sourceOf("example.com/ttl", nil)
	src.Digest = "ttl"

	_, err := i.Inspect(src, plugins.ContractName)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return i.Len() == 0
	}, time.Second, 10*time.Millisecond)

	_, err = i.Inspect(src, plugins.ContractName)
	require.NoError(t, err)
	assert.Equal(t, 2, parses)
}

func TestInspector_ConcurrentInspectParsesOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewPluginMetrics(registry)

	i := NewInspector(4, 0, nil)
	i.SetMetrics(metrics)

	var parses atomic.Int32
	release := make(chan struct{})
	i.parse = func(src *Source, contract string) (*Report, error) {
		parses.Add(1)
		<-release
		return inspectSource(src, contract)
	}

	src, err := ReadSource("testdata/textplugins")
	require.NoError(t, err)

	const callers = 8
	reports := make([]*Report, callers)
	errs := make([]error, callers)

	var started, wg sync.WaitGroup
	started.Add(callers)
	wg.Add(callers)
	for n := 0; n < callers; n++ {
		go func(n int) {
			defer wg.Done()
			started.Done()
			reports[n], errs[n] = i.Inspect(src, plugins.ContractName)
		}(n)
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), parses.Load())
	for n := 0; n < callers; n++ {
		require.NoError(t, errs[n])
		assert.Same(t, reports[0], reports[n])
	}

	total := testutil.ToFloat64(metrics.InspectorCacheHits) +
		testutil.ToFloat64(metrics.InspectorCacheMisses) +
		testutil.ToFloat64(metrics.InspectorParsesShared)
	assert.Equal(t, float64(callers), total)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InspectorCacheMisses))
	assert.Equal(t, float64(callers-1),
		testutil.ToFloat64(metrics.InspectorParsesShared)+testutil.ToFloat64(metrics.InspectorCacheHits))
}

func TestInspector_ConcurrentFailureCountsOneMiss(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewPluginMetrics(registry)

	i := NewInspector(4, 0, nil)
	i.SetMetrics(metrics)

	boom := errors.New("boom")
	release := make(chan struct{})
	var parses atomic.Int32
	i.parse = func(*Source, string) (*Report, error) {
		parses.Add(1)
		<-release
		return nil, boom
	}

	src := sourceOf("example.com/x", nil)
	src.Digest = "x"

	const callers = 4
	var started, wg sync.WaitGroup
	started.Add(callers)
	wg.Add(callers)
	for n := 0; n < callers; n++ {
		go func() {
			defer wg.Done()
			started.Done()
			_, err := i.Inspect(src, plugins.ContractName)
			assert.ErrorIs(t, err, boom)
		}()
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// a caller arriving after the failed parse leads a parse of its own
	misses := testutil.ToFloat64(metrics.InspectorCacheMisses)
	assert.Equal(t, float64(parses.Load()), misses)
	assert.Equal(t, float64(callers), misses+testutil.ToFloat64(metrics.InspectorParsesShared))
	assert.Zero(t, testutil.ToFloat64(metrics.InspectorCacheHits))
}

func TestInspector_SharedFailure(t *testing.T) {
	i := NewInspector(4, 0, nil)
	boom := errors.New("boom")
	i.parse = func(*Source, string) (*Report, error) {
		return nil, boom
	}

	src := sourceOf("example.com/x", nil)
	src.Digest = "x"

	_, err := i.Inspect(src, plugins.ContractName)
	assert.ErrorIs(t, err, boom)
}

func TestShortDigest(t *testing.T) {
	assert.Equal(t, "abc", shortDigest("abc"))
	assert.Equal(t, "0123456789ab", shortDigest("0123456789abcdef"))
}
