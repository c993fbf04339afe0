package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name at the root of every module image
const ManifestFile = "module.yaml"

// Manifest describes a module image
type Manifest struct {
	Module      string   `yaml:"module"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	Requires    []string `yaml:"requires,omitempty"`
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadManifest loads and parses a module manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

// LoadManifestFromDir loads the module.yaml of an image directory
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFile))
}

// SaveManifest saves a module manifest to a file
func SaveManifest(manifest *Manifest, path string) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateManifest performs basic validation on a module manifest
func ValidateManifest(manifest *Manifest) []ValidationError {
	var errors []ValidationError

	if manifest.Module == "" {
		errors = append(errors, ValidationError{
			Field:   "module",
			Message: "Module path is required",
		})
	} else if strings.ContainsAny(manifest.Module, " \t\\") || strings.HasSuffix(manifest.Module, "/") {
		errors = append(errors, ValidationError{
			Field:   "module",
			Message: fmt.Sprintf("Invalid module path: %q", manifest.Module),
		})
	}

	if manifest.Version == "" {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: "Version is required",
		})
	} else if _, err := semver.NewVersion(manifest.Version); err != nil {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid semver format: %s", manifest.Version),
		})
	}

	for i, req := range manifest.Requires {
		field := fmt.Sprintf("requires[%d]", i)
		switch {
		case strings.TrimSpace(req) == "":
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "Dependency path is empty",
			})
		case filepath.IsAbs(req):
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("Dependency path must be relative: %s", req),
			})
		}
	}

	return errors
}
