// Package builtin provides the plugins shipped with plugkit.
//
// # Overview
//
// Each plugin type carries a metadata directive in its doc comment:
//
//	//plugin:metadata description="Transforms text to uppercase" order=0
//	type UppercasePlugin struct{}
//
//	var _ plugins.Plugin = (*UppercasePlugin)(nil)
//
// The assertion marks the type as a plugin. plugkit-gen reads both and writes
// the declaration table returned by Module. The same directives are what an
// isolated sandbox context inspects, so module.yaml turns this directory into
// a loadable image whose summaries match host discovery. Image returns that
// image embedded in the binary.
//
// # Usage Example
//
//	registry := plugins.NewRegistry(logger)
//	_ = registry.AddModule(builtin.Module())
//	descriptors, _ := registry.Discover()
//
// # Related Packages
//
//   - pkg/plugins: Contract and registry
//   - pkg/sandbox: Isolated inspection of this package as an image
//   - cmd/plugkit-gen: Declaration table generator
package builtin

//go:generate go run ../../cmd/plugkit-gen -dir . -out zz_generated.plugins.go
