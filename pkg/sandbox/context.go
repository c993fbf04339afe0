package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/sirupsen/logrus"
	"ocm.software/open-component-model/bindings/go/dag"
)

// State is the lifecycle state of a Context
type State int

const (
	Created State = iota
	Loaded
	Unloaded
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Loaded:
		return "loaded"
	case Unloaded:
		return "unloaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Context
type Option func(*Context)

// WithContract sets the fully qualified interface name plugin types must be
// asserted against
func WithContract(name string) Option {
	return func(c *Context) {
		c.contract = name
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithInspector shares an inspection cache between contexts
func WithInspector(inspector *Inspector) Option {
	return func(c *Context) {
		c.inspector = inspector
	}
}

// WithMetrics records loads and teardowns
func WithMetrics(metrics *observability.PluginMetrics) Option {
	return func(c *Context) {
		c.metrics = metrics
	}
}

// WithTempDir sets where zip images are extracted. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(c *Context) {
		c.tempBase = dir
	}
}

// Context is an isolated inspection boundary that owns one loaded image and
// its dependencies. Image content is parsed, never executed, and nothing it
// declares becomes visible to the host's registry.
//
// Teardown releases everything the context owns. Any *Image obtained from it
// becomes invalid and its methods return ErrInvalidState.
type Context struct {
	mu        sync.Mutex
	state     State
	contract  string
	logger    *logrus.Logger
	inspector *Inspector
	metrics   *observability.PluginMetrics
	tempBase  string
	tempDir   string
	image     *Image
}

// New creates a context in the Created state
func New(opts ...Option) *Context {
	c := &Context{
		state:    Created,
		contract: plugins.ContractName,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = observability.OrDefault(c.logger)
	if c.inspector == nil {
		c.inspector = NewInspector(DefaultInspectorSize, 0, c.logger)
		c.inspector.SetMetrics(c.metrics)
	}
	return c
}

// State returns the current lifecycle state
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Contract returns the interface name types are matched against
func (c *Context) Contract() string {
	return c.contract
}

// Load resolves the image at path and everything it requires. Loading the
// same path again returns the current image; a loaded context refuses other
// paths. A failed load returns a *LoadError and leaves the context in Created.
func (c *Context) Load(ctx context.Context, path string) (*Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	switch c.state {
	case Unloaded:
		return nil, invalidState("load %s: context is torn down", path)
	case Loaded:
		if c.image.path == abs {
			return c.image, nil
		}
		return nil, invalidState("load %s: context already holds %s", path, c.image.path)
	}

	image, tempDir, err := c.load(ctx, abs)
	c.metrics.ObserveSandboxLoad(err)
	if err != nil {
		c.logger.WithError(err).Warn("Module image load failed")
		return nil, &LoadError{Path: path, Err: err}
	}

	c.image = image
	c.tempDir = tempDir
	c.state = Loaded

	c.logger.WithFields(logrus.Fields{
		"module":       image.manifest.Module,
		"version":      image.manifest.Version,
		"dependencies": len(image.deps),
		"plugins":      len(image.report.Summaries),
	}).Infof("Loaded module image %s", path)

	for _, d := range image.report.Diagnostics {
		c.logger.Warnf("Skipping plugin type: %s", d)
	}

	return image, nil
}

func (c *Context) load(ctx context.Context, path string) (*Image, string, error) {
	r := &resolver{
		ctx:      ctx,
		tempBase: c.tempBase,
		graph:    dag.NewDirectedAcyclicGraph[string](),
		sources:  make(map[string]*Source),
	}

	image, err := c.resolveImage(r, path)
	if err != nil {
		r.cleanup()
		return nil, "", err
	}
	return image, r.tempDir, nil
}

func (c *Context) resolveImage(r *resolver, path string) (*Image, error) {
	if err := r.resolve(path); err != nil {
		return nil, err
	}

	order, err := r.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	modules := make(map[string]string, len(order))
	reports := make(map[string]*Report, len(order))

	for _, key := range order {
		if err := r.ctx.Err(); err != nil {
			return nil, plugins.Cancelled(r.ctx)
		}

		src := r.sources[key]
		if other, ok := modules[src.Manifest.Module]; ok {
			return nil, fmt.Errorf("module %s is provided by both %s and %s", src.Manifest.Module, other, key)
		}
		modules[src.Manifest.Module] = key

		report, err := c.inspector.Inspect(src, c.contract)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Manifest.Module, err)
		}
		reports[key] = report
	}

	var deps []string
	for _, key := range order {
		if key != path {
			deps = append(deps, r.sources[key].Manifest.Module)
		}
	}

	primary := r.sources[path]
	manifest := *primary.Manifest

	return &Image{
		owner:    c,
		path:     path,
		root:     primary.Root,
		manifest: &manifest,
		digest:   primary.Digest,
		report:   reports[path],
		deps:     deps,
	}, nil
}

// Summaries lists the plugin types of the loaded image
func (c *Context) Summaries() ([]Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Created:
		return nil, invalidState("no image loaded")
	case Unloaded:
		return nil, invalidState("context is torn down")
	}
	return c.image.summaries(), nil
}

// Teardown releases the image, its dependencies and any extracted files, and
// moves the context to Unloaded. Calling it again does nothing.
func (c *Context) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Unloaded {
		return nil
	}

	var err error
	if c.image != nil {
		c.image.release()
		c.image = nil
	}
	if c.tempDir != "" {
		err = os.RemoveAll(c.tempDir)
		c.tempDir = ""
	}

	c.state = Unloaded
	c.metrics.ObserveSandboxTeardown()
	c.logger.Debug("Sandbox context torn down")

	if err != nil {
		return fmt.Errorf("failed to remove extracted image: %w", err)
	}
	return nil
}

// Close is Teardown
func (c *Context) Close() error {
	return c.Teardown()
}

// resolver walks an image and its requires into a dependency graph
type resolver struct {
	ctx      context.Context
	tempBase string
	tempDir  string
	graph    *dag.DirectedAcyclicGraph[string]
	sources  map[string]*Source
}

func (r *resolver) resolve(path string) error {
	if err := r.ctx.Err(); err != nil {
		return plugins.Cancelled(r.ctx)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	root := path
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), ".zip") {
			return errors.New("not a module image, expected a directory or .zip archive")
		}

		dest, err := r.extractDir()
		if err != nil {
			return err
		}
		if root, err = extractZip(path, dest); err != nil {
			return err
		}
	}

	src, err := ReadSource(root)
	if err != nil {
		return err
	}
	if problems := ValidateManifest(src.Manifest); len(problems) > 0 {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return fmt.Errorf("invalid manifest: %w", errors.Join(errs...))
	}

	if err := r.graph.AddVertex(path); err != nil {
		return err
	}
	r.sources[path] = src

	for _, req := range src.Manifest.Requires {
		// joined onto the image path, so an archive's ../dep is its sibling
		dep := filepath.Join(path, filepath.FromSlash(req))

		if !r.graph.Contains(dep) {
			if err := r.resolve(dep); err != nil {
				return fmt.Errorf("requires %s: %w", req, err)
			}
		}
		if err := r.graph.AddEdge(path, dep); err != nil {
			return fmt.Errorf("requires %s: %w", req, err)
		}
	}

	return nil
}

func (r *resolver) extractDir() (string, error) {
	if r.tempDir == "" {
		dir, err := os.MkdirTemp(r.tempBase, "plugkit-sandbox-*")
		if err != nil {
			return "", fmt.Errorf("failed to create extraction directory: %w", err)
		}
		r.tempDir = dir
	}
	return os.MkdirTemp(r.tempDir, "image-*")
}

func (r *resolver) cleanup() {
	if r.tempDir != "" {
		_ = os.RemoveAll(r.tempDir)
	}
}
