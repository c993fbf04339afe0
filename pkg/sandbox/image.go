package sandbox

// Image is a handle to a module image loaded in a Context. It holds no live
// values from the image, only what inspection produced. Once the owning
// context is torn down every accessor returns ErrInvalidState.
type Image struct {
	owner    *Context
	path     string
	root     string
	manifest *Manifest
	digest   string
	report   *Report
	deps     []string
	released bool
}

// Path returns the path the image was loaded from
func (i *Image) Path() string {
	return i.path
}

func (i *Image) live() error {
	if i.released {
		return invalidState("image %s belongs to a torn down context", i.path)
	}
	return nil
}

// Manifest returns a copy of the image manifest
func (i *Image) Manifest() (Manifest, error) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()

	if err := i.live(); err != nil {
		return Manifest{}, err
	}
	m := *i.manifest
	m.Requires = append([]string(nil), i.manifest.Requires...)
	return m, nil
}

// Root returns the directory the image content was read from. For zip images
// it lies inside the context's extraction directory.
func (i *Image) Root() (string, error) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()

	if err := i.live(); err != nil {
		return "", err
	}
	return i.root, nil
}

// Digest returns the sha256 content digest of the image
func (i *Image) Digest() (string, error) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()

	if err := i.live(); err != nil {
		return "", err
	}
	return i.digest, nil
}

// Dependencies returns the module paths of every required image, dependencies
// first
func (i *Image) Dependencies() ([]string, error) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()

	if err := i.live(); err != nil {
		return nil, err
	}
	return append([]string(nil), i.deps...), nil
}

// Summaries lists the plugin types of the image in declaration order
func (i *Image) Summaries() ([]Summary, error) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()

	if err := i.live(); err != nil {
		return nil, err
	}
	return i.summaries(), nil
}

// Diagnostics lists the asserted types that were skipped, with the reason
func (i *Image) Diagnostics() ([]Diagnostic, error) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()

	if err := i.live(); err != nil {
		return nil, err
	}
	return append([]Diagnostic(nil), i.report.Diagnostics...), nil
}

func (i *Image) summaries() []Summary {
	return append([]Summary(nil), i.report.Summaries...)
}

func (i *Image) release() {
	i.released = true
	i.manifest = nil
	i.report = nil
	i.deps = nil
}
