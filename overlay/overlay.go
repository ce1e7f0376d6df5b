// Package overlay is the runtime support library for generated shadow types.
// Generated code delegates its Clone, Equal, and String methods here, and
// callers use Stack to assemble a configuration from layered partial sources.
package overlay

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/jinzhu/copier"
	"github.com/mitchellh/copystructure"
)

// Applier is implemented by every generated shadow type for its original
// type T.
type Applier[T any] interface {
	ApplyTo(target *T)
}

// Stack applies layers to target in order. Later layers win field-by-field
// wherever their optional slots are present; absent slots leave the earlier
// value (or the original) in place.
func Stack[T any](target *T, layers ...Applier[T]) {
	for _, layer := range layers {
		layer.ApplyTo(target)
	}
}

// Clone returns a deep copy of v. Generated Clone methods delegate here.
// Only exported fields are copied; shadow types never carry unexported
// fields, so for them the copy is complete.
func Clone[T any](v T) T {
	copied, err := copystructure.Copy(v)
	if err != nil {
		// Shadow types are plain data; a copy failure means the value
		// escaped the supported type shapes.
		panic(fmt.Sprintf("overlay: clone %T: %v", v, err))
	}
	return copied.(T)
}

// Equal reports whether a and b hold the same values, including through
// pointers and unexported fields. Generated Equal methods delegate here, so
// this must not be built on cmp: cmp re-enters Equal methods it finds on the
// compared types, which would recurse forever.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Diff returns a human-readable report of the differences between a and b,
// or the empty string when they are equal.
func Diff(a, b any) string {
	return cmp.Diff(a, b, cmp.Exporter(func(reflect.Type) bool { return true }))
}

// DisableMethods keeps spew from calling Stringer methods: generated String
// methods delegate here, and re-entering them would recurse forever.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump renders v for debugging. Generated String methods delegate here.
func Dump(v any) string {
	return dumper.Sdump(v)
}

// Assign overlays src's non-zero exported fields onto dst using reflection.
// It is the loose, runtime fallback for types without generated shadow code;
// unlike generated ApplyTo methods it cannot distinguish an absent value from
// a present zero value.
func Assign(dst, src any) error {
	return copier.CopyWithOption(dst, src, copier.Option{IgnoreEmpty: true, DeepCopy: true})
}
