package sandbox

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// copyDir copies the regular files of src into a new directory under dst
func copyDir(t *testing.T, src, dst string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dst, 0755))
	entries, err := os.ReadDir(src)
	require.NoError(t, err)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, entry.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dst, entry.Name()), data, 0644))
	}
	return dst
}

// zipDir archives the regular files of src into archive, under prefix
func zipDir(t *testing.T, src, archive, prefix string) string {
	t.Helper()

	out, err := os.Create(archive)
	require.NoError(t, err)
	defer out.Close()

	w := zip.NewWriter(out)
	entries, err := os.ReadDir(src)
	require.NoError(t, err)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, err := w.Create(prefix + entry.Name())
		require.NoError(t, err)

		in, err := os.Open(filepath.Join(src, entry.Name()))
		require.NoError(t, err)
		_, err = io.Copy(f, in)
		in.Close()
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return archive
}

func writeImage(t *testing.T, dir, manifest string, files map[string]string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}
