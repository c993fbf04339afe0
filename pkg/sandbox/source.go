package sandbox

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxExtractedFileSize bounds a single file extracted from a zip image
const maxExtractedFileSize = 16 << 20

// Source is the in-memory content of one module image
type Source struct {
	// Root is the directory the content was read from
	Root     string
	Manifest *Manifest
	Files    []SourceFile
	Digest   string

	manifestData []byte
}

// SourceFile is one Go source file of an image, by base name
type SourceFile struct {
	Name    string
	Content []byte
}

// ReadSource reads the manifest and the package's Go files (tests excluded)
// from an image directory. Files are sorted by name.
func ReadSource(dir string) (*Source, error) {
	manifestData, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest, err := ParseManifest(manifestData)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var files []SourceFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		files = append(files, SourceFile{Name: name, Content: content})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return &Source{
		Root:         dir,
		Manifest:     manifest,
		Files:        files,
		Digest:       digest(manifestData, files),
		manifestData: manifestData,
	}, nil
}

// Without returns a copy of s without the named files, with its digest
// recomputed
func (s *Source) Without(names ...string) *Source {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}

	var files []SourceFile
	for _, f := range s.Files {
		if !drop[f.Name] {
			files = append(files, f)
		}
	}

	out := *s
	out.Files = files
	out.Digest = digest(s.manifestData, files)
	return &out
}

// digest hashes the manifest, then each file as name + \0 + content + \0, in
// name order
func digest(manifest []byte, files []SourceFile) string {
	h := sha256.New()
	h.Write([]byte(ManifestFile))
	h.Write([]byte{0})
	h.Write(manifest)
	h.Write([]byte{0})

	for _, f := range files {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write(f.Content)
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// extractZip unpacks archive into dest and returns the image root: dest
// itself, or its single top-level directory when the manifest lives there.
func extractZip(archive, dest string) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if target != dest && !strings.HasPrefix(target, dest+string(filepath.Separator)) {
			return "", fmt.Errorf("archive entry escapes image root: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dest, ManifestFile)); err == nil {
		return dest, nil
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dest, entries[0].Name()), nil
	}
	return dest, nil
}

func extractFile(f *zip.File, target string) error {
	if f.UncompressedSize64 > maxExtractedFileSize {
		return fmt.Errorf("file too large (%d bytes)", f.UncompressedSize64)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, io.LimitReader(rc, maxExtractedFileSize)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
