// Package sandbox loads module images into isolated, disposable inspection
// contexts.
//
// # Overview
//
// A module image is a directory, or a .zip archive of one, holding a
// module.yaml manifest and the Go source of a single package:
//
//	module: example.com/textplugins
//	version: 1.2.0
//	requires:
//	  - ../helpers
//
// A Context parses the image and everything it requires. The code is never
// compiled or run: plugin types are found by the textual assertion
//
//	var _ plugins.Plugin = (*Reverse)(nil)
//
// resolved through the file's imports to the contract's fully qualified name,
// and their metadata comes from the type's directive:
//
//	//plugin:metadata description="Reverses text" order=2
//
// # Lifecycle
//
// A Context moves from Created to Loaded to Unloaded. A failed Load returns a
// *LoadError and commits nothing. Teardown is idempotent and invalidates every
// *Image handed out, so later calls return ErrInvalidState.
//
//	sb := sandbox.New(sandbox.WithLogger(logger))
//	defer sb.Teardown()
//
//	if _, err := sb.Load(ctx, "plugins/textplugins.zip"); err != nil {
//		return err
//	}
//	summaries, err := sb.Summaries()
//
// # Caching and Reloading
//
// An Inspector shared through WithInspector caches reports by content digest,
// so unchanged images are parsed once. A Watcher keeps a context loaded with
// the latest content of a path and reports each reload.
//
// # Related Packages
//
//   - pkg/plugins: The contract name matched by default
//   - pkg/builtin: Loadable as an image of its own
//   - cmd/plugkit-gen: Uses the same inspection to write declaration tables
package sandbox
