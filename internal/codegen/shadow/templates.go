package shadow

// Template for the generated shadow types and their ApplyTo methods. Unused
// imports are pruned by goimports after rendering.
const shadowTemplate = `// Code generated by optionalstruct. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}

	"github.com/eliad-wiz/OptionalStruct/overlay"
)
{{range .Structs}}
// {{.Name}} is a partial overlay of {{.Original}}. Nil fields are absent and
// leave the target untouched when applied.
type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}{{if .Tag}} ` + "`{{.Tag}}`" + `{{end}}
{{- end}}
}

// ApplyTo overlays o's present values onto target, field by field. Applying
// the same overlay twice leaves the same target as applying it once.
func (o {{.Name}}) ApplyTo(target *{{.Original}}) {
{{- range .Fields}}
	{{mergeStmt .}}
{{- end}}
}

// Clone returns a deep copy of o.
func (o {{.Name}}) Clone() {{.Name}} {
	return overlay.Clone(o)
}

// Equal reports whether o and other hold the same values.
func (o {{.Name}}) Equal(other {{.Name}}) bool {
	return overlay.Equal(o, other)
}

// String renders o for debugging.
func (o {{.Name}}) String() string {
	return overlay.Dump(o)
}
{{end}}`

// Template for the generated property tests (-tests flag). The zero overlay
// must be a no-op and application must be idempotent for every generated type.
const shadowTestTemplate = `// Code generated by optionalstruct. DO NOT EDIT.

package {{.Package}}

import (
	"testing"

	"github.com/stretchr/testify/require"
)
{{range .Structs}}
func Test{{.Name}}ZeroOverlayIsIdentity(t *testing.T) {
	var target {{.Original}}
	before := target
	{{.Name}}{}.ApplyTo(&target)
	require.Equal(t, before, target)
}

func Test{{.Name}}ApplyIsIdempotent(t *testing.T) {
	var ov {{.Name}}
	var once, twice {{.Original}}
	ov.ApplyTo(&once)
	ov.ApplyTo(&twice)
	ov.ApplyTo(&twice)
	require.Equal(t, once, twice)
}
{{end}}`
