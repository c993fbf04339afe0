package builtin

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUppercasePlugin(t *testing.T) {
	p := &UppercasePlugin{}
	assert.Equal(t, "Uppercase", p.Name())

	tests := []struct {
		input    string
		expected string
	}{
		{"hi", "HI"},
		{"", ""},
		{"Hello from MAUI", "HELLO FROM MAUI"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := p.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestMetadataPlugin(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	p := &MetadataPlugin{
		Now: func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, loc) },
	}
	assert.Equal(t, "Metadata", p.Name())

	out, err := p.Execute(context.Background(), "HI")
	require.NoError(t, err)
	assert.Equal(t, "HI [MetadataPlugin at 2024-03-09 12:05:07Z]", out)
}

func TestMetadataPlugin_DefaultClock(t *testing.T) {
	p := &MetadataPlugin{}

	out, err := p.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Regexp(t, `^x \[MetadataPlugin at \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}Z\]$`, out)
}

func TestPlugins_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, p := range []plugins.Plugin{&UppercasePlugin{}, &MetadataPlugin{}} {
		_, err := p.Execute(ctx, "hi")
		assert.ErrorIs(t, err, plugins.ErrOperationCancelled, p.Name())
		assert.ErrorIs(t, err, context.Canceled, p.Name())
	}
}

func TestModule(t *testing.T) {
	m := Module()
	assert.Equal(t, ModulePath, m.Path())

	decls := m.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, "MetadataPlugin", decls[0].Name)
	assert.Equal(t, "UppercasePlugin", decls[1].Name)

	registry := plugins.NewRegistry(nil)
	require.NoError(t, registry.AddModule(m))

	descriptors, err := registry.Discover()
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, "UppercasePlugin", descriptors[0].Type.Name)
	assert.Equal(t, 0, descriptors[0].Order())
	assert.Equal(t, "Transforms text to uppercase", descriptors[0].Label())
	assert.IsType(t, &UppercasePlugin{}, descriptors[0].New())

	assert.Equal(t, "MetadataPlugin", descriptors[1].Type.Name)
	assert.Equal(t, 1, descriptors[1].Order())
	assert.Equal(t, "Appends execution metadata", descriptors[1].Label())
	assert.IsType(t, &MetadataPlugin{}, descriptors[1].New())
}

func TestImage(t *testing.T) {
	img := Image()

	data, err := fs.ReadFile(img, "module.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "module: "+ModulePath)

	matches, err := fs.Glob(img, "*.go")
	require.NoError(t, err)
	assert.Contains(t, matches, "uppercase.go")
	assert.Contains(t, matches, "metadata.go")
	assert.NotContains(t, matches, "builtin_test.go")
}
