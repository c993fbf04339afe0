// Package cli provides the plugkit command-line interface.
//
// # Overview
//
// This package implements the `plugkit` commands for listing the discovered
// plugins, running them as a pipeline, and inspecting module images in an
// isolated context.
//
// # Commands
//
// list: Show discovered plugins in execution order
//
//	plugkit list
//	plugkit list --output table
//
// run: Run the built-in pipeline
//
//	plugkit run "hello"
//	plugkit run one two three            # concurrent runs, one per payload
//	plugkit run --schedule "@every 10s"  # repeat until interrupted
//
// inspect: List the plugin types of a module image without loading its code
//
//	plugkit inspect ./plugins
//	plugkit inspect ./plugins.zip --output json
//	plugkit inspect ./plugins --watch
//
// tour: List, run, then inspect the built-in image
//
//	plugkit tour
//
// # Global Flags
//
//	--config        YAML configuration file
//	--log-level     trace, debug, info, warn, error
//	--metrics-addr  serve /metrics and /health on this address
//
// # Related Packages
//
//   - pkg/config: Settings behind the flags
//   - pkg/pipeline: Runs the pipeline
//   - pkg/sandbox: Isolated inspection
package cli
