package shadow

import (
	"fmt"

	"github.com/eliad-wiz/OptionalStruct/internal/codegen"
)

// Representation is the shape a field takes in the generated shadow struct.
type Representation int

const (
	// ReprRaw carries the declared type verbatim.
	ReprRaw Representation = iota
	// ReprWrapped carries a pointer to the declared type.
	ReprWrapped
	// ReprNested carries the nested shadow type by value; merge recurses
	// unconditionally.
	ReprNested
	// ReprWrappedNested carries a pointer to the nested shadow type; merge
	// recurses only when present.
	ReprWrappedNested
)

func (r Representation) String() string {
	switch r {
	case ReprWrapped:
		return "wrapped"
	case ReprNested:
		return "nested"
	case ReprWrappedNested:
		return "wrapped-nested"
	default:
		return "raw"
	}
}

// Field is one field of the generated shadow struct, with everything the
// templates need to emit its declaration and its merge statement.
type Field struct {
	Name       string
	Repr       Representation
	Type       string // Type as emitted in the shadow struct declaration
	OrigType   string // Declared type on the original struct
	ShadowType string // Shadow type name for nested representations
	// OrigIsPointer marks nested fields whose original is a pointer; merge
	// allocates the target before recursing.
	OrigIsPointer bool
	// Presence marks raw fields that still merge behind a nil check because
	// the declared type is its own optional container.
	Presence bool
	Tag      string
}

// Struct is the full structural description of one generated shadow type.
type Struct struct {
	Name       string // Shadow type name
	Original   string // Original type name
	Fields     []Field
	ReceiverID string // Receiver identifier, derived from the shadow name
}

// Build resolves every field of the schema and produces the shadow struct
// description. Field order is the schema's declaration order.
func Build(schema *codegen.StructSchema, cfg codegen.StructConfig, reg *codegen.TypeRegistry) (*Struct, error) {
	out := &Struct{
		Name:       cfg.ShadowName,
		Original:   schema.Name,
		Fields:     make([]Field, 0, len(schema.Fields)),
		ReceiverID: "o",
	}
	for _, f := range schema.Fields {
		wrap := ResolveWrap(f, cfg)
		shadowType, nested, err := ResolveNested(schema.Name, f, reg)
		if err != nil {
			return nil, err
		}
		sf := Field{
			Name:          f.Name,
			OrigType:      f.Type,
			ShadowType:    shadowType,
			OrigIsPointer: f.IsPointer,
			Tag:           f.Tag,
		}
		switch {
		case nested && wrap == WrapWrapped:
			sf.Repr = ReprWrappedNested
			sf.Type = "*" + shadowType
		case nested:
			sf.Repr = ReprNested
			sf.Type = shadowType
		case wrap == WrapWrapped:
			sf.Repr = ReprWrapped
			sf.Type = "*" + f.Type
		default:
			sf.Repr = ReprRaw
			sf.Type = f.Type
			sf.Presence = alreadyOptional(f)
		}
		out.Fields = append(out.Fields, sf)
	}
	return out, nil
}

// MergeStmt returns the merge method's statement(s) for one shadow field,
// with recv as the shadow receiver and "target" as the original. Every branch
// is a pure overwrite-or-skip, which is what makes repeated application
// idempotent and layered application last-writer-wins per field.
func MergeStmt(recv string, f Field) string {
	src := recv + "." + f.Name
	dst := "target." + f.Name
	switch f.Repr {
	case ReprWrapped:
		return fmt.Sprintf("if %s != nil {\n\t\t%s = *%s\n\t}", src, dst, src)
	case ReprNested:
		if f.OrigIsPointer {
			return fmt.Sprintf("if %s == nil {\n\t\t%s = new(%s)\n\t}\n\t%s.ApplyTo(%s)", dst, dst, baseType(f.OrigType), src, dst)
		}
		return fmt.Sprintf("%s.ApplyTo(&%s)", src, dst)
	case ReprWrappedNested:
		if f.OrigIsPointer {
			return fmt.Sprintf("if %s != nil {\n\t\tif %s == nil {\n\t\t\t%s = new(%s)\n\t\t}\n\t\t%s.ApplyTo(%s)\n\t}", src, dst, dst, baseType(f.OrigType), src, dst)
		}
		return fmt.Sprintf("if %s != nil {\n\t\t%s.ApplyTo(&%s)\n\t}", src, src, dst)
	default:
		if f.Presence {
			return fmt.Sprintf("if %s != nil {\n\t\t%s = %s\n\t}", src, dst, src)
		}
		return fmt.Sprintf("%s = %s", dst, src)
	}
}

func baseType(declared string) string {
	if len(declared) > 0 && declared[0] == '*' {
		return declared[1:]
	}
	return declared
}
