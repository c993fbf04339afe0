package codegen

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"path"
	"path/filepath"
	"text/template"

	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/platinummonkey/plugkit/pkg/sandbox"
	"github.com/sirupsen/logrus"
)

//go:embed declarations.go.tmpl
var declarationsTemplate string

// Generator writes the declaration table of a plugin package, read from the
// same directives and assertions the isolated inspector reads
type Generator struct {
	inspector *sandbox.Inspector
	log       *logrus.Logger
}

// NewGenerator creates a new declaration table generator
func NewGenerator(log *logrus.Logger) *Generator {
	if log == nil {
		log = logrus.New()
	}
	return &Generator{
		inspector: sandbox.NewInspector(sandbox.DefaultInspectorSize, 0, log),
		log:       log,
	}
}

// Generate renders the declaration table for the package in dir. The package
// needs a module.yaml naming its import path. A previous output file is not
// read.
func (g *Generator) Generate(dir, output string) (GeneratedFile, error) {
	if output == "" {
		output = DefaultOutput
	}

	src, err := sandbox.ReadSource(dir)
	if err != nil {
		return GeneratedFile{}, err
	}
	src = src.Without(filepath.Base(output))

	report, err := g.inspector.Inspect(src, plugins.ContractName)
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("failed to inspect %s: %w", dir, err)
	}
	if len(report.Diagnostics) > 0 {
		return GeneratedFile{}, &DiagnosticsError{Diagnostics: report.Diagnostics}
	}

	content, err := render(report)
	if err != nil {
		return GeneratedFile{}, err
	}

	g.log.Debugf("Generated %d declarations for %s", len(report.Summaries), report.Module)

	return GeneratedFile{
		Path:    output,
		Content: content,
		Size:    int64(len(content)),
	}, nil
}

func render(report *sandbox.Report) ([]byte, error) {
	tmpl, err := template.New("declarations").Parse(declarationsTemplate)
	if err != nil {
		return nil, err
	}

	contractPkg, _, err := sandbox.SplitContract(plugins.ContractName)
	if err != nil {
		return nil, err
	}
	data := templateData{
		Package: report.Package,
		Module:  report.Module,
		Import:  contractPkg,
		Q:       path.Base(contractPkg) + ".",
	}
	if report.Module == contractPkg {
		data.Import = ""
		data.Q = ""
	}

	for _, s := range report.Summaries {
		constructor := s.Name + "{}"
		if s.Pointer {
			constructor = "&" + constructor
		}
		data.Plugins = append(data.Plugins, templatePlugin{
			Name:        s.Name,
			Constructor: constructor,
			HasMetadata: s.HasMetadata,
			Description: s.Description,
			Order:       s.Order,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated code does not format: %w", err)
	}
	return formatted, nil
}
