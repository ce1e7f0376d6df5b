package codegen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"sort"
	"strings"
)

// GeneratorName is the marker looked for in go:generate directives when
// discovering which structs in a package get shadow types.
const GeneratorName = "optionalstruct"

// TypeRegistry maps original type names to their shadow type names. It is
// populated by one complete scan over the package before any generation runs
// and is read-only afterwards, so rename-based lookups resolve regardless of
// declaration order.
type TypeRegistry struct {
	shadows map[string]string
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{shadows: make(map[string]string)}
}

// Register records the shadow type name for an original type.
func (r *TypeRegistry) Register(original, shadow string) {
	r.shadows[original] = shadow
}

// Shadow returns the registered shadow type name for an original type.
func (r *TypeRegistry) Shadow(original string) (string, bool) {
	s, ok := r.shadows[original]
	return s, ok
}

// Names returns the registered original type names, sorted.
func (r *TypeRegistry) Names() []string {
	names := make([]string, 0, len(r.shadows))
	for name := range r.shadows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildRegistry scans every non-test file in the package for structs marked
// with an optionalstruct go:generate directive, follows their local nested
// struct fields transitively, and registers each under its shadow name. This
// pass must complete before per-struct generation starts.
func BuildRegistry(dir string, cfg *ProjectConfig) (*TypeRegistry, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi os.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing directory: %w", err)
	}
	reg := NewTypeRegistry()
	var roots []rootDecl
	for _, pkg := range pkgs {
		if strings.HasSuffix(pkg.Name, "_test") {
			continue
		}
		for _, f := range pkg.Files {
			roots = append(roots, markedStructs(f)...)
		}
	}
	for _, root := range roots {
		name := cfg.StructConfig(root.typeName).ShadowName
		if root.nameFlag != "" {
			name = root.nameFlag
		}
		reg.Register(root.typeName, name)
	}
	// Nested local structs self-register too: they get shadow types of their
	// own so merge code can recurse into them.
	for _, root := range roots {
		schema, err := FindStructInPackage(dir, root.typeName)
		if err != nil {
			return nil, err
		}
		nested, err := FindNestedStructs(dir, schema)
		if err != nil {
			return nil, err
		}
		for _, n := range nested {
			if _, ok := reg.Shadow(n.Name); !ok {
				reg.Register(n.Name, cfg.StructConfig(n.Name).ShadowName)
			}
		}
	}
	return reg, nil
}

type rootDecl struct {
	typeName string
	nameFlag string
}

// markedStructs returns every struct in the file whose doc comment carries an
// optionalstruct go:generate directive, along with any -name flag given there.
func markedStructs(f *ast.File) []rootDecl {
	var roots []rootDecl
	for _, decl := range f.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE || genDecl.Doc == nil {
			continue
		}
		nameFlag := ""
		marked := false
		for _, comment := range genDecl.Doc.List {
			if !strings.Contains(comment.Text, "go:generate") || !strings.Contains(comment.Text, GeneratorName) {
				continue
			}
			marked = true
			// flag accepts both -name=X and -name X.
			toks := strings.Fields(comment.Text)
			for i, tok := range toks {
				if strings.HasPrefix(tok, "-name=") {
					nameFlag = strings.TrimPrefix(tok, "-name=")
				} else if tok == "-name" && i+1 < len(toks) {
					nameFlag = toks[i+1]
				}
			}
		}
		if !marked {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if _, ok := typeSpec.Type.(*ast.StructType); ok {
				roots = append(roots, rootDecl{typeName: typeSpec.Name.Name, nameFlag: nameFlag})
			}
		}
	}
	return roots
}
