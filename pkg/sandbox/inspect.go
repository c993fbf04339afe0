package sandbox

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/platinummonkey/plugkit/pkg/plugins"
)

// DirectivePrefix starts the comment line that carries a type's metadata
const DirectivePrefix = "//plugin:metadata"

var majorVersionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// Summary describes one plugin type found in an image. It is read from source
// and never backed by a live value.
type Summary struct {
	// TypeName is the fully qualified name, module.Name
	TypeName    string `json:"type" yaml:"type"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Order       int    `json:"order" yaml:"order"`
	HasMetadata bool   `json:"hasMetadata" yaml:"hasMetadata"`
	// Pointer reports whether the contract is asserted on *T
	Pointer bool `json:"pointer" yaml:"pointer"`
}

// Diagnostic reports a type skipped during inspection
type Diagnostic struct {
	File    string
	Line    int
	Type    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Type, d.Message)
}

// Report is the inspection result of one image
type Report struct {
	Module      string
	Package     string
	Summaries   []Summary
	Diagnostics []Diagnostic
}

type typeDecl struct {
	name     string
	file     string
	line     int
	doc      *ast.CommentGroup
	concrete bool
}

// inspectSource parses every file of src and lists the types asserted to
// implement contract, in declaration order.
func inspectSource(src *Source, contract string) (*Report, error) {
	contractPkg, contractName, err := SplitContract(contract)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	files := make([]*ast.File, 0, len(src.Files))
	pkgName := ""

	for _, sf := range src.Files {
		f, err := parser.ParseFile(fset, sf.Name, sf.Content, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", sf.Name, err)
		}

		if pkgName == "" {
			pkgName = f.Name.Name
		} else if f.Name.Name != pkgName {
			return nil, fmt.Errorf("image mixes packages %s and %s (%s)", pkgName, f.Name.Name, sf.Name)
		}
		files = append(files, f)
	}

	module := src.Manifest.Module
	selfContract := module == contractPkg

	var types []typeDecl
	asserted := make(map[string]bool)

	for _, f := range files {
		filename := fset.Position(f.Pos()).Filename
		imports := importNames(f)

		for _, decl := range f.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}

			switch gen.Tok {
			case token.TYPE:
				for _, spec := range gen.Specs {
					ts := spec.(*ast.TypeSpec)
					doc := ts.Doc
					if doc == nil && !gen.Lparen.IsValid() {
						doc = gen.Doc
					}
					_, isInterface := ts.Type.(*ast.InterfaceType)

					types = append(types, typeDecl{
						name:     ts.Name.Name,
						file:     filename,
						line:     fset.Position(ts.Pos()).Line,
						doc:      doc,
						concrete: !isInterface && !ts.Assign.IsValid() && ts.TypeParams == nil,
					})
				}

			case token.VAR:
				for _, spec := range gen.Specs {
					vs := spec.(*ast.ValueSpec)
					if vs.Type == nil || !refersTo(vs.Type, imports, contractPkg, contractName, selfContract) {
						continue
					}
					for _, value := range vs.Values {
						name, pointer, ok := assertedType(value)
						if !ok {
							continue
						}
						if _, seen := asserted[name]; !seen {
							asserted[name] = pointer
						}
					}
				}
			}
		}
	}

	report := &Report{Module: module, Package: pkgName}

	for _, td := range types {
		pointer, ok := asserted[td.name]
		if !ok || !td.concrete {
			continue
		}

		summary := Summary{
			TypeName: plugins.TypeID{Module: module, Name: td.name}.String(),
			Name:     td.name,
			Order:    plugins.Unordered,
			Pointer:  pointer,
		}

		metadata, err := typeMetadata(td.doc)
		if err != nil {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				File:    td.file,
				Line:    td.line,
				Type:    td.name,
				Message: err.Error(),
			})
			continue
		}
		if metadata != nil {
			summary.Description = metadata.Description
			summary.Order = metadata.Order
			summary.HasMetadata = true
		}

		report.Summaries = append(report.Summaries, summary)
	}

	return report, nil
}

// SplitContract splits a fully qualified contract name "import/path.Name" into
// its package path and type name
func SplitContract(contract string) (string, string, error) {
	i := strings.LastIndex(contract, ".")
	if i <= 0 || i == len(contract)-1 || strings.Contains(contract[i+1:], "/") {
		return "", "", fmt.Errorf("invalid contract name %q, expected import/path.Name", contract)
	}
	return contract[:i], contract[i+1:], nil
}

// importNames maps each local package name of a file to its import path.
// Dot imports map from ".".
func importNames(f *ast.File) map[string][]string {
	names := make(map[string][]string, len(f.Imports))
	for _, spec := range f.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		var local string
		if spec.Name != nil {
			local = spec.Name.Name
		} else {
			local = defaultImportName(importPath)
		}
		if local == "_" {
			continue
		}
		names[local] = append(names[local], importPath)
	}
	return names
}

// defaultImportName guesses the package name from the import path, skipping a
// major version suffix
func defaultImportName(importPath string) string {
	base := path.Base(importPath)
	if majorVersionSuffix.MatchString(base) {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	return strings.ReplaceAll(base, "-", "_")
}

func refersTo(expr ast.Expr, imports map[string][]string, pkgPath, name string, self bool) bool {
	switch e := expr.(type) {
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok || e.Sel.Name != name {
			return false
		}
		for _, p := range imports[x.Name] {
			if p == pkgPath {
				return true
			}
		}
	case *ast.Ident:
		if e.Name != name {
			return false
		}
		if self {
			return true
		}
		for _, p := range imports["."] {
			if p == pkgPath {
				return true
			}
		}
	case *ast.ParenExpr:
		return refersTo(e.X, imports, pkgPath, name, self)
	}
	return false
}

// assertedType recognizes (*T)(nil), &T{}, new(T) and T{}
func assertedType(expr ast.Expr) (string, bool, bool) {
	switch e := expr.(type) {
	case *ast.CallExpr:
		if len(e.Args) != 1 {
			return "", false, false
		}
		if fn, ok := e.Fun.(*ast.Ident); ok && fn.Name == "new" {
			if t, ok := e.Args[0].(*ast.Ident); ok {
				return t.Name, true, true
			}
			return "", false, false
		}
		paren, ok := e.Fun.(*ast.ParenExpr)
		if !ok {
			return "", false, false
		}
		star, ok := paren.X.(*ast.StarExpr)
		if !ok {
			return "", false, false
		}
		if t, ok := star.X.(*ast.Ident); ok {
			return t.Name, true, true
		}
	case *ast.UnaryExpr:
		if e.Op != token.AND {
			return "", false, false
		}
		if lit, ok := e.X.(*ast.CompositeLit); ok {
			if t, ok := lit.Type.(*ast.Ident); ok {
				return t.Name, true, true
			}
		}
	case *ast.CompositeLit:
		if t, ok := e.Type.(*ast.Ident); ok {
			return t.Name, false, true
		}
	}
	return "", false, false
}

// typeMetadata reads the metadata directive from a type's doc comment. A
// missing directive returns nil; more than one is an error.
func typeMetadata(doc *ast.CommentGroup) (*plugins.Metadata, error) {
	if doc == nil {
		return nil, nil
	}

	var found *plugins.Metadata
	for _, c := range doc.List {
		args, ok := directiveArgs(c.Text)
		if !ok {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("more than one %s directive", DirectivePrefix)
		}

		m, err := ParseDirective(args)
		if err != nil {
			return nil, err
		}
		found = m
	}
	return found, nil
}

func directiveArgs(comment string) (string, bool) {
	rest, ok := strings.CutPrefix(comment, DirectivePrefix)
	if !ok {
		return "", false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// ParseDirective parses the arguments of a metadata directive:
//
//	description="Transforms text to uppercase" order=0
//
// description is required and must not be empty. order defaults to 0.
func ParseDirective(args string) (*plugins.Metadata, error) {
	m := &plugins.Metadata{}
	seen := make(map[string]bool)
	rest := strings.TrimSpace(args)

	for rest != "" {
		key, after, ok := strings.Cut(rest, "=")
		if !ok || key == "" || strings.ContainsAny(key, " \t\"") {
			return nil, fmt.Errorf("malformed directive argument %q, expected key=value", rest)
		}

		var value string
		if strings.HasPrefix(after, `"`) {
			quoted, err := strconv.QuotedPrefix(after)
			if err != nil {
				return nil, fmt.Errorf("malformed quoted value for %s: %w", key, err)
			}
			value, _ = strconv.Unquote(quoted)
			after = after[len(quoted):]
		} else {
			end := strings.IndexAny(after, " \t")
			if end < 0 {
				end = len(after)
			}
			value, after = after[:end], after[end:]
		}

		if after != "" && after[0] != ' ' && after[0] != '\t' {
			return nil, fmt.Errorf("missing space after %s value", key)
		}
		rest = strings.TrimSpace(after)

		if seen[key] {
			return nil, fmt.Errorf("duplicate directive key %s", key)
		}
		seen[key] = true

		switch key {
		case "description":
			m.Description = value
		case "order":
			order, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid order %q: %w", value, err)
			}
			m.Order = order
		default:
			return nil, fmt.Errorf("unknown directive key %s", key)
		}
	}

	if m.Description == "" {
		return nil, fmt.Errorf("directive description is empty")
	}
	return m, nil
}
