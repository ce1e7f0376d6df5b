package codegen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

// ErrTypeNotFound marks a type lookup miss, as opposed to a schema error in
// a type that was found.
var ErrTypeNotFound = errors.New("type not found in package")

// ParseStruct parses a Go source file and extracts the named struct's schema.
func ParseStruct(dir, filename, typeName string) (*StructSchema, error) {
	fset := token.NewFileSet()
	fullPath := filepath.Join(dir, filename)
	f, err := parser.ParseFile(fset, fullPath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	targetStruct, targetName, err := findStructType(f, typeName)
	if err != nil {
		return nil, err
	}
	fields, err := parseStructFields(targetName, targetStruct)
	if err != nil {
		return nil, err
	}
	return &StructSchema{
		Name:       targetName,
		Fields:     fields,
		Imports:    collectImports(f),
		SourceFile: filename,
	}, nil
}

func collectImports(f *ast.File) []ImportInfo {
	imports := make([]ImportInfo, 0, len(f.Imports))
	for _, imp := range f.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		alias := ""
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		imports = append(imports, ImportInfo{Path: path, Alias: alias})
	}
	return imports
}

func findStructType(f *ast.File, typeName string) (*ast.StructType, string, error) {
	for _, decl := range f.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok || typeSpec.Name.Name != typeName {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				return nil, "", fmt.Errorf("type %s is not a struct", typeName)
			}
			return structType, typeSpec.Name.Name, nil
		}
	}
	return nil, "", fmt.Errorf("type %s not found", typeName)
}

func parseStructFields(structName string, st *ast.StructType) ([]FieldInfo, error) {
	fields := make([]FieldInfo, 0, len(st.Fields.List))
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			continue // Skip embedded fields
		}
		for _, name := range field.Names {
			// Unexported fields stay out of the shadow type: the deep-copy
			// and comparison helpers backing the generated methods only see
			// exported fields, and cross-package output could not reference
			// them anyway.
			if !ast.IsExported(name.Name) {
				continue
			}
			fi, err := parseFieldType(field.Type)
			if err != nil {
				return nil, fmt.Errorf("struct %s, field %s: %w", structName, name.Name, err)
			}
			fi.Name = name.Name
			fi.TypeExpr = field.Type
			fi.Type = exprToString(field.Type)
			if field.Tag != nil {
				raw, err := strconv.Unquote(field.Tag.Value)
				if err != nil {
					return nil, fmt.Errorf("struct %s, field %s: malformed tag %s", structName, name.Name, field.Tag.Value)
				}
				fi.Directive, fi.RenameTarget, err = parseDirective(raw)
				if err != nil {
					return nil, fmt.Errorf("struct %s, field %s: %w", structName, name.Name, err)
				}
				fi.Tag = stripOptionalKey(raw)
			}
			fields = append(fields, fi)
		}
	}
	return fields, nil
}

// parseDirective extracts the wrap directive and rename target from a raw
// struct tag. A tag carrying both skip_wrap and wrap is a fatal conflict.
func parseDirective(rawTag string) (Directive, string, error) {
	val, ok := reflect.StructTag(rawTag).Lookup("optional")
	if !ok {
		return DirectiveNone, "", nil
	}
	directive := DirectiveNone
	rename := ""
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "skip_wrap":
			if directive == DirectiveWrap {
				return 0, "", fmt.Errorf("conflicting directives skip_wrap and wrap")
			}
			directive = DirectiveSkipWrap
		case part == "wrap":
			if directive == DirectiveSkipWrap {
				return 0, "", fmt.Errorf("conflicting directives skip_wrap and wrap")
			}
			directive = DirectiveWrap
		case strings.HasPrefix(part, "rename="):
			rename = strings.TrimPrefix(part, "rename=")
			if rename == "" {
				return 0, "", fmt.Errorf("rename directive with empty target")
			}
		default:
			return 0, "", fmt.Errorf("unknown optional directive %q", part)
		}
	}
	return directive, rename, nil
}

// stripOptionalKey rebuilds a struct tag without the `optional` key so the
// remaining annotations are copied through to the shadow field verbatim.
func stripOptionalKey(rawTag string) string {
	var kept []string
	for _, part := range splitTag(rawTag) {
		if !strings.HasPrefix(part, `optional:`) {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}

func splitTag(rawTag string) []string {
	var parts []string
	tag := strings.TrimSpace(rawTag)
	for tag != "" {
		i := strings.Index(tag, `:"`)
		if i < 0 {
			break
		}
		j := strings.Index(tag[i+2:], `"`)
		if j < 0 {
			break
		}
		end := i + 2 + j + 1
		parts = append(parts, tag[:end])
		tag = strings.TrimSpace(tag[end:])
	}
	return parts
}

func parseFieldType(expr ast.Expr) (FieldInfo, error) {
	fi := FieldInfo{}
	switch t := expr.(type) {
	case *ast.Ident:
		fi.TypeName = t.Name
		fi.IsStruct = !isBasicType(t.Name)
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return fi, fmt.Errorf("unsupported type shape %s", exprToString(expr))
		}
		fi.TypePkg = pkg.Name
		fi.TypeName = t.Sel.Name
		fi.IsStruct = true
	case *ast.StarExpr:
		inner, err := parseFieldType(t.X)
		if err != nil {
			return fi, err
		}
		fi = inner
		fi.IsPointer = true
	case *ast.ArrayType:
		if _, err := parseFieldType(t.Elt); err != nil {
			return fi, err
		}
		fi.IsSlice = true
		fi.TypeName = exprToString(expr)
	case *ast.MapType:
		if _, err := parseFieldType(t.Key); err != nil {
			return fi, err
		}
		if _, err := parseFieldType(t.Value); err != nil {
			return fi, err
		}
		fi.IsMap = true
		fi.TypeName = exprToString(expr)
	case *ast.InterfaceType:
		if t.Methods != nil && len(t.Methods.List) > 0 {
			return fi, fmt.Errorf("unsupported type shape %s", exprToString(expr))
		}
		fi.TypeName = "any"
	default:
		// chan, func, anonymous struct: optional-ness cannot be determined
		// structurally, so generation aborts.
		return fi, fmt.Errorf("unsupported type shape %s", exprToString(expr))
	}
	return fi, nil
}

func isBasicType(name string) bool {
	switch name {
	case "bool", "string",
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"byte", "rune", "any", "error",
		"float32", "float64",
		"complex64", "complex128":
		return true
	}
	return false
}

func exprToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprToString(t.X)
	case *ast.ArrayType:
		return "[]" + exprToString(t.Elt)
	case *ast.MapType:
		return "map[" + exprToString(t.Key) + "]" + exprToString(t.Value)
	case *ast.SelectorExpr:
		return exprToString(t.X) + "." + t.Sel.Name
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "any"
		}
		return "interface{...}"
	default:
		return types.ExprString(expr)
	}
}

// FindTypeAfterGenerateDirective finds the struct type declared immediately
// after a go:generate directive naming the given generator.
func FindTypeAfterGenerateDirective(dir, filename, generatorName string) (string, error) {
	fset := token.NewFileSet()
	fullPath := filepath.Join(dir, filename)
	f, err := parser.ParseFile(fset, fullPath, nil, parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("parsing file: %w", err)
	}
	for _, decl := range f.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE || genDecl.Doc == nil {
			continue
		}
		for _, comment := range genDecl.Doc.List {
			if strings.Contains(comment.Text, "go:generate") && strings.Contains(comment.Text, generatorName) {
				for _, spec := range genDecl.Specs {
					typeSpec, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					if _, ok := typeSpec.Type.(*ast.StructType); ok {
						return typeSpec.Name.Name, nil
					}
				}
			}
		}
	}
	return "", fmt.Errorf("no struct type found after go:generate %s directive", generatorName)
}

// FindTypeAfterLine finds the struct type declared immediately after the
// given line number. Used to resolve GOLINE when the directive sits apart
// from the type declaration.
func FindTypeAfterLine(filename string, lineNum int) (string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("parsing file: %w", err)
	}
	for _, decl := range f.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			pos := fset.Position(typeSpec.Pos())
			if pos.Line > lineNum {
				if _, ok := typeSpec.Type.(*ast.StructType); ok {
					return typeSpec.Name.Name, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no struct type found after line %d", lineNum)
}

// FindStructInPackage searches all non-test .go files in the directory for a
// struct type and returns its schema.
func FindStructInPackage(dir, typeName string) (*StructSchema, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi os.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing directory: %w", err)
	}
	for _, pkg := range pkgs {
		for filename, f := range pkg.Files {
			for _, decl := range f.Decls {
				genDecl, ok := decl.(*ast.GenDecl)
				if !ok || genDecl.Tok != token.TYPE {
					continue
				}
				for _, spec := range genDecl.Specs {
					typeSpec, ok := spec.(*ast.TypeSpec)
					if !ok || typeSpec.Name.Name != typeName {
						continue
					}
					structType, ok := typeSpec.Type.(*ast.StructType)
					if !ok {
						continue
					}
					fields, err := parseStructFields(typeName, structType)
					if err != nil {
						return nil, err
					}
					return &StructSchema{
						Name:       typeSpec.Name.Name,
						Fields:     fields,
						Imports:    collectImports(f),
						SourceFile: filepath.Base(filename),
					}, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("type %s: %w", typeName, ErrTypeNotFound)
}

// FindNestedStructs finds all local struct types reachable from the given
// schema's fields, transitively. They become part of the generation set so
// nested merge code can recurse into them.
func FindNestedStructs(dir string, schema *StructSchema) ([]*StructSchema, error) {
	var nested []*StructSchema
	seen := map[string]bool{schema.Name: true}
	queue := []*StructSchema{schema}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, field := range current.Fields {
			if !field.IsStruct || field.TypePkg != "" || field.IsSlice || field.IsMap || seen[field.TypeName] {
				continue
			}
			info, err := FindStructInPackage(dir, field.TypeName)
			if errors.Is(err, ErrTypeNotFound) {
				continue // Type is external or aliased; treated as scalar
			}
			if err != nil {
				return nil, err
			}
			seen[info.Name] = true
			nested = append(nested, info)
			queue = append(queue, info)
		}
	}
	return nested, nil
}

// CollectUsedImports returns the subset of file imports referenced by the
// given fields.
func CollectUsedImports(schemas []*StructSchema) []ImportInfo {
	allImports := make(map[string]ImportInfo)
	for _, s := range schemas {
		for _, imp := range s.Imports {
			pkgName := imp.Alias
			if pkgName == "" {
				pkgName = filepath.Base(imp.Path)
			}
			allImports[pkgName] = imp
		}
	}
	usedPkgs := make(map[string]bool)
	for _, s := range schemas {
		for _, f := range s.Fields {
			collectPkgsFromExpr(f.TypeExpr, usedPkgs)
		}
	}
	imports := make([]ImportInfo, 0, len(usedPkgs))
	for pkgName := range usedPkgs {
		if imp, ok := allImports[pkgName]; ok {
			imports = append(imports, imp)
		}
	}
	return imports
}

func collectPkgsFromExpr(expr ast.Expr, used map[string]bool) {
	switch t := expr.(type) {
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			used[pkg.Name] = true
		}
	case *ast.StarExpr:
		collectPkgsFromExpr(t.X, used)
	case *ast.ArrayType:
		collectPkgsFromExpr(t.Elt, used)
	case *ast.MapType:
		collectPkgsFromExpr(t.Key, used)
		collectPkgsFromExpr(t.Value, used)
	}
}
