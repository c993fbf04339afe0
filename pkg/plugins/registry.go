package plugins

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Declaration is one entry of a module's declaration table
type Declaration struct {
	Name     string
	New      Factory
	Metadata []Metadata
}

// DeclOption configures a Declaration
type DeclOption func(*Declaration)

// WithMetadata attaches metadata to a declaration
func WithMetadata(description string, order int) DeclOption {
	return func(d *Declaration) {
		d.Metadata = append(d.Metadata, Metadata{Description: description, Order: order})
	}
}

// Module is the declaration table of one component boundary
type Module struct {
	path  string
	decls []Declaration
}

// NewModule creates an empty module for the given import path
func NewModule(path string) *Module {
	return &Module{path: path}
}

// Declare adds a plugin type to the module. A nil factory declares an abstract
// type, which discovery skips.
func (m *Module) Declare(name string, factory Factory, opts ...DeclOption) *Module {
	decl := Declaration{Name: name, New: factory}
	for _, opt := range opts {
		opt(&decl)
	}
	m.decls = append(m.decls, decl)
	return m
}

// Path returns the module's import path
func (m *Module) Path() string {
	return m.path
}

// Declarations returns a copy of the declaration table in declaration order
func (m *Module) Declarations() []Declaration {
	out := make([]Declaration, len(m.decls))
	copy(out, m.decls)
	return out
}

// Registry discovers plugins from the modules it holds
type Registry struct {
	modules []*Module
	metrics *observability.PluginMetrics
	mu      sync.RWMutex
	log     *logrus.Logger
}

// NewRegistry creates a new plugin registry
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}

	return &Registry{
		log: log,
	}
}

// SetMetrics sets the metrics used to count skipped declarations
func (r *Registry) SetMetrics(metrics *observability.PluginMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = metrics
}

// AddModule adds a module to the registry
func (r *Registry) AddModule(module *Module) error {
	if module == nil {
		return fmt.Errorf("cannot add nil module")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.modules {
		if existing.path == module.path {
			return fmt.Errorf("module already registered: %s", module.path)
		}
	}

	r.modules = append(r.modules, module)
	return nil
}

// Modules returns the registered modules in registration order
func (r *Registry) Modules() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Discover returns the concrete plugin declarations of every module, sorted by
// order with unordered declarations last. Ties keep declaration order.
//
// Malformed declarations are skipped; the returned error joins one
// DiscoveryError per skip and never invalidates the returned descriptors.
func (r *Registry) Discover() ([]Descriptor, error) {
	r.mu.RLock()
	modules := make([]*Module, len(r.modules))
	copy(modules, r.modules)
	metrics := r.metrics
	r.mu.RUnlock()

	var descriptors []Descriptor
	var errs []error

	for _, module := range modules {
		seen := make(map[string]bool, len(module.decls))

		for _, decl := range module.decls {
			descriptor, err := inspectDeclaration(module.path, decl, seen)
			if err != nil {
				r.log.Warnf("Skipping plugin declaration: %v", err)
				metrics.ObserveDiscoverySkip()
				errs = append(errs, err)
				continue
			}
			if descriptor == nil {
				r.log.Debugf("Skipping abstract plugin declaration %s.%s", module.path, decl.Name)
				continue
			}

			descriptors = append(descriptors, *descriptor)
		}
	}

	SortDescriptors(descriptors)

	r.log.Debugf("Discovered %d plugins", len(descriptors))
	return descriptors, errors.Join(errs...)
}

// inspectDeclaration validates a declaration. It returns a nil descriptor and
// nil error for abstract declarations.
func inspectDeclaration(modulePath string, decl Declaration, seen map[string]bool) (*Descriptor, error) {
	skip := func(reason string) error {
		return &DiscoveryError{Module: modulePath, Type: decl.Name, Reason: reason}
	}

	if decl.Name == "" {
		return nil, skip("type name is empty")
	}
	if seen[decl.Name] {
		return nil, skip("type declared more than once")
	}
	seen[decl.Name] = true

	if decl.New == nil {
		return nil, nil
	}

	var metadata *Metadata
	switch len(decl.Metadata) {
	case 0:
	case 1:
		if decl.Metadata[0].Description == "" {
			return nil, skip("metadata description is empty")
		}
		m := decl.Metadata[0]
		metadata = &m
	default:
		return nil, skip(fmt.Sprintf("%d metadata declarations, at most one allowed", len(decl.Metadata)))
	}

	return &Descriptor{
		Type:     TypeID{Module: modulePath, Name: decl.Name},
		Metadata: metadata,
		New:      decl.New,
	}, nil
}

// SortDescriptors stable-sorts descriptors by order, unordered last
func SortDescriptors(descriptors []Descriptor) {
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].Order() < descriptors[j].Order()
	})
}
