// Package codegen provides schema extraction and shared utilities for the
// optionalstruct generator.
package codegen

import "go/ast"

// Directive is a per-field instruction carried in the `optional` struct tag.
type Directive int

const (
	// DirectiveNone leaves the wrap decision to the struct's default.
	DirectiveNone Directive = iota
	// DirectiveSkipWrap keeps the field's declared type in the shadow struct.
	DirectiveSkipWrap
	// DirectiveWrap wraps the field in a pointer regardless of the default.
	DirectiveWrap
)

func (d Directive) String() string {
	switch d {
	case DirectiveSkipWrap:
		return "skip_wrap"
	case DirectiveWrap:
		return "wrap"
	default:
		return "none"
	}
}

// StructSchema holds the normalized form of a parsed struct type.
type StructSchema struct {
	Name    string
	Fields  []FieldInfo
	Imports []ImportInfo
	// SourceFile is the base name of the file the struct was found in.
	SourceFile string
}

// FieldInfo holds information about a struct field.
type FieldInfo struct {
	Name         string
	Type         string    // Full type string (e.g., "[]string", "*Endpoint")
	TypeExpr     ast.Expr  // Original AST expression
	TypeName     string    // Base type name (e.g., "string", "Endpoint")
	TypePkg      string    // Package prefix if any (e.g., "time" for time.Time)
	IsPointer    bool      // Field is a pointer type
	IsSlice      bool      // Field is a slice
	IsMap        bool      // Field is a map
	IsStruct     bool      // Field is a named, non-basic type
	Tag          string    // Struct tag with the `optional` key stripped
	Directive    Directive // Wrap directive from the `optional` tag
	RenameTarget string    // Nested lookup override from `optional:"rename=..."`
}

// ImportInfo holds information about an import.
type ImportInfo struct {
	Path  string
	Alias string
}

// StructConfig is the struct-level generation configuration, resolved from
// flags and the project config file.
type StructConfig struct {
	// ShadowName is the name of the generated shadow type.
	ShadowName string
	// DefaultWrap wraps every field without a directive in a pointer.
	DefaultWrap bool
}

// GeneratorConfig holds the per-run configuration of the generator.
type GeneratorConfig struct {
	TypeName     string
	SourceFile   string
	SourceDir    string
	SourcePkg    string
	OutputDir    string
	OutputPkg    string
	GenerateTest bool
}
