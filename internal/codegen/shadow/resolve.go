// Package shadow implements the shadow-struct and merge-method generator.
// It decides, per field, whether the shadow field is pointer-wrapped, whether
// it recurses into a nested shadow type, and what the merge method does.
package shadow

import (
	"fmt"

	"github.com/eliad-wiz/OptionalStruct/internal/codegen"
)

// WrapDecision says whether a shadow field gets an optional container.
type WrapDecision int

const (
	// WrapRaw keeps the field's declared type verbatim.
	WrapRaw WrapDecision = iota
	// WrapWrapped puts the field behind a pointer.
	WrapWrapped
)

func (d WrapDecision) String() string {
	if d == WrapWrapped {
		return "wrapped"
	}
	return "raw"
}

// ResolveWrap computes the wrap decision for a single field. Precedence,
// highest first: skip_wrap directive, wrap directive, already-optional
// declared type, the struct's default_wrap.
//
// A pointer, slice, or map field is already its own optional container; it is
// never wrapped again, even by an explicit wrap directive. Doubling up would
// emit **T and change nothing about merge semantics.
func ResolveWrap(f codegen.FieldInfo, cfg codegen.StructConfig) WrapDecision {
	switch f.Directive {
	case codegen.DirectiveSkipWrap:
		return WrapRaw
	case codegen.DirectiveWrap:
		if alreadyOptional(f) {
			return WrapRaw
		}
		return WrapWrapped
	}
	if alreadyOptional(f) {
		return WrapRaw
	}
	if cfg.DefaultWrap {
		return WrapWrapped
	}
	return WrapRaw
}

func alreadyOptional(f codegen.FieldInfo) bool {
	return f.IsPointer || f.IsSlice || f.IsMap
}

// ResolveNested determines whether the field's type has a registered shadow
// counterpart, enabling recursive merge instead of plain overwrite. The
// lookup key is the rename target when one is given, otherwise the declared
// type name. A missing rename target is fatal; a plain miss means the field
// is scalar for merge purposes.
//
// Without a rename, a pointer field never recurses even when its pointee is
// registered: the declared pointer is the field's own optional slot, and it
// merges as Raw with a presence check. An explicit rename opts into nesting,
// and only a named local struct type can carry one.
func ResolveNested(structName string, f codegen.FieldInfo, reg *codegen.TypeRegistry) (string, bool, error) {
	if f.RenameTarget != "" {
		if !f.IsStruct || f.IsSlice || f.IsMap || f.TypePkg != "" {
			return "", false, fmt.Errorf("struct %s, field %s: rename=%s requires a named local struct type, field is %s", structName, f.Name, f.RenameTarget, f.Type)
		}
		shadow, ok := reg.Shadow(f.RenameTarget)
		if !ok {
			return "", false, fmt.Errorf("struct %s, field %s: rename target %s is not registered for shadow generation", structName, f.Name, f.RenameTarget)
		}
		return shadow, true, nil
	}
	// Slices, maps, pointers, and external types never recurse; they keep
	// their declared shape and merge as scalars.
	if !f.IsStruct || f.TypePkg != "" || f.IsSlice || f.IsMap || f.IsPointer {
		return "", false, nil
	}
	shadow, ok := reg.Shadow(f.TypeName)
	if !ok {
		return "", false, nil
	}
	return shadow, true, nil
}
