package codegen

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/plugkit/pkg/sandbox"
)

// DefaultOutput is the file written next to the package's sources
const DefaultOutput = "zz_generated.plugins.go"

// GeneratedFile represents a single generated file
type GeneratedFile struct {
	Path    string // Relative path within the package directory
	Content []byte
	Size    int64
}

// DiagnosticsError reports plugin types whose metadata directive could not be
// read. Nothing is generated while any remain.
type DiagnosticsError struct {
	Diagnostics []sandbox.Diagnostic
}

func (e *DiagnosticsError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return fmt.Sprintf("%d malformed plugin declarations:\n%s", len(lines), strings.Join(lines, "\n"))
}

type templateData struct {
	Package string
	Module  string
	Import  string
	// Q qualifies identifiers of the plugins package
	Q       string
	Plugins []templatePlugin
}

type templatePlugin struct {
	Name        string
	Constructor string
	HasMetadata bool
	Description string
	Order       int
}
