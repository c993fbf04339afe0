// Package plugins defines the plugin contract and the registry that discovers and orders plugins.
//
// # Overview
//
// A plugin is a named transform over a text payload. Plugins are declared in a Module, which is
// the declaration table of one component boundary. A Registry holds modules and turns their
// declarations into an ordered list of descriptors.
//
// # Plugin Contract
//
//	type Plugin interface {
//		Name() string
//		Execute(ctx context.Context, payload string) (string, error)
//	}
//
// Plugins that complete asynchronously implement AsyncPlugin and are adapted with Await.
//
// # Ordering
//
// Descriptors sort by Metadata.Order ascending. A declaration without metadata sorts as
// Unordered, after every ordered one. Ties keep declaration order.
//
// # Usage Example
//
//	registry := plugins.NewRegistry(logger)
//	registry.AddModule(builtin.Module())
//
//	descriptors, err := registry.Discover()
//	if err != nil {
//		logger.Warnf("some plugins were skipped: %v", err)
//	}
//
//	for _, d := range descriptors {
//		fmt.Printf("%02d :: %s\n", d.Order(), d.Label())
//	}
//
// # Related Packages
//
//   - pkg/plugins/intercept: Logging, metrics and tracing decorators
//   - pkg/pipeline: Composes descriptors into a payload pipeline
//   - pkg/sandbox: Metadata-only inspection of module images
package plugins
