package codegen

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/platinummonkey/plugkit/pkg/sandbox"
)

// DefaultImageVersion is written when InitImage is given no version
const DefaultImageVersion = "0.1.0"

// InitImage makes the package in dir a loadable module image by writing its
// module.yaml. An existing manifest for the same module is kept as is and
// created is false. A manifest naming another module is an error.
func InitImage(dir, module, version string) (manifest *sandbox.Manifest, created bool, err error) {
	existing, err := sandbox.LoadManifestFromDir(dir)
	switch {
	case err == nil:
		if existing.Module != module {
			return nil, false, fmt.Errorf("%s already declares module %s", filepath.Join(dir, sandbox.ManifestFile), existing.Module)
		}
		return existing, false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, false, err
	}

	if version == "" {
		version = DefaultImageVersion
	}
	manifest = &sandbox.Manifest{Module: module, Version: version}

	if problems := sandbox.ValidateManifest(manifest); len(problems) > 0 {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return nil, false, fmt.Errorf("invalid manifest: %w", errors.Join(errs...))
	}

	if err := sandbox.SaveManifest(manifest, filepath.Join(dir, sandbox.ManifestFile)); err != nil {
		return nil, false, err
	}
	return manifest, true, nil
}
