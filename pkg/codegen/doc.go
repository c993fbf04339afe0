// Package codegen generates plugin declaration tables.
//
// # Overview
//
// A plugin package marks its types with a contract assertion and an optional
// metadata directive:
//
//	//plugin:metadata description="Transforms text to uppercase" order=0
//	type UppercasePlugin struct{}
//
//	var _ plugins.Plugin = (*UppercasePlugin)(nil)
//
// The generator reads the package through the sandbox inspector, so the table
// it writes always agrees with what an isolated context reports for the same
// sources:
//
//	func Module() *plugins.Module {
//		return plugins.NewModule(ModulePath).
//			Declare("UppercasePlugin", func() plugins.Plugin { return &UppercasePlugin{} },
//				plugins.WithMetadata("Transforms text to uppercase", 0))
//	}
//
// Pointer assertions produce &T{} factories and value assertions T{}.
// A malformed directive fails generation with a DiagnosticsError.
//
// # Usage Example
//
//	//go:generate go run github.com/platinummonkey/plugkit/cmd/plugkit-gen -dir .
//
// # Related Packages
//
//   - pkg/sandbox: Source reading and inspection
//   - cmd/plugkit-gen: Command-line entry point
package codegen
