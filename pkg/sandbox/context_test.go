package sandbox

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/platinummonkey/plugkit/pkg/builtin"
	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ocm.software/open-component-model/bindings/go/dag"
)

func summaryNames(summaries []Summary) []string {
	names := make([]string, len(summaries))
	for i, s := range summaries {
		names[i] = s.Name
	}
	return names
}

func TestNew(t *testing.T) {
	c := New()

	assert.Equal(t, Created, c.State())
	assert.Equal(t, plugins.ContractName, c.Contract())
	assert.NotNil(t, c.logger)
	assert.NotNil(t, c.inspector)

	custom := logrus.New()
	c = New(WithLogger(custom), WithContract("example.com/x.Plugin"))
	assert.Same(t, custom, c.logger)
	assert.Equal(t, "example.com/x.Plugin", c.Contract())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "unloaded", Unloaded.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestContext_Load(t *testing.T) {
	c := New()
	defer c.Teardown()

	image, err := c.Load(context.Background(), "testdata/textplugins")
	require.NoError(t, err)
	assert.Equal(t, Loaded, c.State())

	summaries, err := c.Summaries()
	require.NoError(t, err)
	assert.Equal(t, []string{"Shout", "Reverse", "Quiet", "Aliased"}, summaryNames(summaries))

	assert.Equal(t, Summary{
		TypeName:    "example.com/textplugins.Shout",
		Name:        "Shout",
		Description: "Shouts the payload",
		Order:       0,
		HasMetadata: true,
	}, summaries[0])
	assert.True(t, summaries[1].Pointer)
	assert.Equal(t, 2, summaries[1].Order)
	assert.Equal(t, plugins.Unordered, summaries[2].Order)
	assert.Empty(t, summaries[2].Description)
	assert.False(t, summaries[2].HasMetadata)
	assert.Equal(t, "Imported under another name", summaries[3].Description)

	fromImage, err := image.Summaries()
	require.NoError(t, err)
	assert.Equal(t, summaries, fromImage)

	manifest, err := image.Manifest()
	require.NoError(t, err)
	assert.Equal(t, "example.com/textplugins", manifest.Module)
	assert.Equal(t, "1.2.0", manifest.Version)

	deps, err := image.Dependencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/helpers"}, deps)

	diagnostics, err := image.Diagnostics()
	require.NoError(t, err)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, "Broken", diagnostics[0].Type)
	assert.Contains(t, diagnostics[0].Message, `invalid order "first"`)

	digest, err := image.Digest()
	require.NoError(t, err)
	assert.Len(t, digest, 64)
}

func TestContext_SummariesAreCopies(t *testing.T) {
	c := New()
	defer c.Teardown()

	_, err := c.Load(context.Background(), "testdata/textplugins")
	require.NoError(t, err)

	first, err := c.Summaries()
	require.NoError(t, err)
	first[0].Name = "changed"

	second, err := c.Summaries()
	require.NoError(t, err)
	assert.Equal(t, "Shout", second[0].Name)
}

func TestContext_LoadMissing(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewPluginMetrics(registry)
	c := New(WithMetrics(metrics))

	image, err := c.Load(context.Background(), "missing.bin")
	assert.Nil(t, image)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.bin", loadErr.Path)

	// nothing committed
	assert.Equal(t, Created, c.State())
	_, err = c.Summaries()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SandboxLoadsTotal.WithLabelValues("error")))

	// the context is still usable
	_, err = c.Load(context.Background(), "testdata/helpers")
	require.NoError(t, err)
	assert.Equal(t, Loaded, c.State())
	require.NoError(t, c.Teardown())
}

func TestContext_LoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		message string
	}{
		{"not an image", "testdata/notanimage/plain.bin", "not a module image"},
		{"directory without manifest", "testdata/notanimage", "failed to read manifest"},
		{"syntax error", "testdata/badsyntax", "failed to parse bad.go"},
		{"invalid manifest", "testdata/badmanifest", "Invalid semver format: not-a-version"},
		{"dependency cycle", "testdata/cycle-a", "cycle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()

			_, err := c.Load(context.Background(), tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, Created, c.State())
		})
	}
}

func TestContext_LoadCycleError(t *testing.T) {
	_, err := New().Load(context.Background(), "testdata/cycle-a")

	var cycle *dag.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.NotEmpty(t, cycle.Cycle)
}

func TestContext_LoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New()
	_, err := c.Load(ctx, "testdata/textplugins")
	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, plugins.ErrOperationCancelled)
	assert.Equal(t, Created, c.State())
}

func TestContext_LoadTwice(t *testing.T) {
	c := New()
	defer c.Teardown()

	first, err := c.Load(context.Background(), "testdata/textplugins")
	require.NoError(t, err)

	abs, err := filepath.Abs("testdata/textplugins")
	require.NoError(t, err)
	again, err := c.Load(context.Background(), abs)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = c.Load(context.Background(), "testdata/helpers")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrLoad)
}

func TestContext_Teardown(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewPluginMetrics(registry)
	c := New(WithMetrics(metrics))

	image, err := c.Load(context.Background(), "testdata/textplugins")
	require.NoError(t, err)

	require.NoError(t, c.Teardown())
	assert.Equal(t, Unloaded, c.State())

	// second teardown is a no-op
	require.NoError(t, c.Teardown())
	assert.Equal(t, Unloaded, c.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SandboxTeardownsTotal))

	_, err = c.Load(context.Background(), "testdata/textplugins")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = c.Summaries()
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = image.Summaries()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = image.Manifest()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = image.Dependencies()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = image.Diagnostics()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = image.Digest()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = image.Root()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestContext_TeardownWithoutLoad(t *testing.T) {
	c := New()
	require.NoError(t, c.Close())
	assert.Equal(t, Unloaded, c.State())

	_, err := c.Load(context.Background(), "testdata/helpers")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestContext_LoadZip(t *testing.T) {
	dir := t.TempDir()
	extractBase := t.TempDir()

	copyDir(t, "testdata/helpers", filepath.Join(dir, "helpers"))
	archive := zipDir(t, "testdata/textplugins", filepath.Join(dir, "textplugins.zip"), "textplugins/")

	c := New(WithTempDir(extractBase))
	image, err := c.Load(context.Background(), archive)
	require.NoError(t, err)

	summaries, err := c.Summaries()
	require.NoError(t, err)
	assert.Equal(t, []string{"Shout", "Reverse", "Quiet", "Aliased"}, summaryNames(summaries))

	root, err := image.Root()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(root))
	assert.FileExists(t, filepath.Join(root, ManifestFile))

	deps, err := image.Dependencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/helpers"}, deps)

	entries, err := os.ReadDir(extractBase)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, c.Teardown())
	entries, err = os.ReadDir(extractBase)
	require.NoError(t, err)
	assert.Empty(t, entries, "teardown removes extracted files")
}

func TestContext_LoadZipFailureCleansUp(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		wantErr string
	}{
		{
			name:    "missing dependency",
			setup:   func(t *testing.T, dir string) {},
			wantErr: "requires ../helpers",
		},
		{
			name: "broken dependency",
			setup: func(t *testing.T, dir string) {
				writeImage(t, filepath.Join(dir, "helpers"), "module: example.com/helpers\nversion: 1.0.0\n",
					map[string]string{"helpers.go": "package helpers\n\nfunc Upper(s string string {\n"})
			},
			wantErr: "helpers.go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			extractBase := t.TempDir()
			tt.setup(t, dir)

			// requires ../helpers, resolved next to the archive
			archive := zipDir(t, "testdata/textplugins", filepath.Join(dir, "textplugins.zip"), "")

			c := New(WithTempDir(extractBase))
			_, err := c.Load(context.Background(), archive)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, Created, c.State())

			entries, err := os.ReadDir(extractBase)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestContext_ZipSlip(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, filepath.Join(dir, "src"), "module: example.com/evil\nversion: 1.0.0\n", nil)
	archive := zipDir(t, src, filepath.Join(dir, "evil.zip"), "../")

	_, err := New(WithTempDir(t.TempDir())).Load(context.Background(), archive)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestContext_DuplicateModuleIdentity(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a"), "module: example.com/same\nversion: 1.0.0\n", nil)
	writeImage(t, filepath.Join(dir, "b"), "module: example.com/same\nversion: 2.0.0\n", nil)
	root := writeImage(t, filepath.Join(dir, "root"), "module: example.com/root\nversion: 1.0.0\nrequires:\n  - ../a\n  - ../b\n", nil)

	_, err := New().Load(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module example.com/same is provided by both")
}

func TestContext_DiamondDependencies(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "base"), "module: example.com/base\nversion: 1.0.0\n", nil)
	writeImage(t, filepath.Join(dir, "left"), "module: example.com/left\nversion: 1.0.0\nrequires: [../base]\n", nil)
	writeImage(t, filepath.Join(dir, "right"), "module: example.com/right\nversion: 1.0.0\nrequires: [../base]\n", nil)
	root := writeImage(t, filepath.Join(dir, "top"), "module: example.com/top\nversion: 1.0.0\nrequires: [../left, ../right]\n", nil)

	c := New()
	defer c.Teardown()

	image, err := c.Load(context.Background(), root)
	require.NoError(t, err)

	deps, err := image.Dependencies()
	require.NoError(t, err)
	require.Len(t, deps, 3)
	assert.Equal(t, "example.com/base", deps[0], "dependencies come first")
	assert.ElementsMatch(t, []string{"example.com/base", "example.com/left", "example.com/right"}, deps)
}

func TestContext_CustomContract(t *testing.T) {
	c := New(WithContract("fmt.Stringer"))
	defer c.Teardown()

	_, err := c.Load(context.Background(), "testdata/textplugins")
	require.NoError(t, err)

	summaries, err := c.Summaries()
	require.NoError(t, err)
	assert.Equal(t, []string{"Stringer"}, summaryNames(summaries))
}

func TestContext_SelfContract(t *testing.T) {
	c := New()
	defer c.Teardown()

	_, err := c.Load(context.Background(), "testdata/selfcontract")
	require.NoError(t, err)

	summaries, err := c.Summaries()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Echo", summaries[0].Name)
	assert.Equal(t, 0, summaries[0].Order)
}

// Inspecting the builtin package as an image must agree with host discovery
// of its generated declaration table.
func TestContext_MatchesHostDiscovery(t *testing.T) {
	registry := plugins.NewRegistry(nil)
	require.NoError(t, registry.AddModule(builtin.Module()))
	descriptors, err := registry.Discover()
	require.NoError(t, err)

	c := New()
	defer c.Teardown()

	_, err = c.Load(context.Background(), "../builtin")
	require.NoError(t, err)
	summaries, err := c.Summaries()
	require.NoError(t, err)

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Order < summaries[j].Order
	})

	require.Len(t, summaries, len(descriptors))
	for i, d := range descriptors {
		assert.Equal(t, d.Type.String(), summaries[i].TypeName)
		assert.Equal(t, d.Order(), summaries[i].Order)
		assert.Equal(t, d.Metadata.Description, summaries[i].Description)
	}
}

func TestContext_SharedInspector(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewPluginMetrics(registry)
	inspector := NewInspector(8, 0, nil)
	inspector.SetMetrics(metrics)

	for i := 0; i < 3; i++ {
		c := New(WithInspector(inspector))
		_, err := c.Load(context.Background(), "testdata/textplugins")
		require.NoError(t, err)
		require.NoError(t, c.Teardown())
	}

	// primary and dependency, parsed once each
	assert.Equal(t, 2, inspector.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.InspectorCacheMisses))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.InspectorCacheHits))
}
