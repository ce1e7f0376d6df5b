package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, name, source string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(source), 0644))
	return dir
}

func TestParseStruct(t *testing.T) {
	t.Parallel()

	source := `package conf

import "time"

type Config struct {
	Name      string    ` + "`json:\"name\"`" + `
	Seed      int64     ` + "`optional:\"skip_wrap\" json:\"seed\"`" + `
	Forced    int       ` + "`optional:\"wrap\"`" + `
	Fallback  Node      ` + "`optional:\"rename=Endpoint\"`" + `
	Desc      *string
	Hosts     []string
	Labels    map[string]string
	CreatedAt time.Time
	secret    string
}

type Node struct {
	Host string
}
`
	dir := writeSource(t, "config.go", source)
	schema, err := ParseStruct(dir, "config.go", "Config")
	require.NoError(t, err)
	assert.Equal(t, "Config", schema.Name)
	require.Len(t, schema.Fields, 8)

	byName := make(map[string]FieldInfo, len(schema.Fields))
	for _, f := range schema.Fields {
		byName[f.Name] = f
	}

	assert.Equal(t, DirectiveNone, byName["Name"].Directive)
	assert.Equal(t, `json:"name"`, byName["Name"].Tag)

	assert.Equal(t, DirectiveSkipWrap, byName["Seed"].Directive)
	// The optional key is stripped; the rest of the tag is carried through.
	assert.Equal(t, `json:"seed"`, byName["Seed"].Tag)

	assert.Equal(t, DirectiveWrap, byName["Forced"].Directive)
	assert.Empty(t, byName["Forced"].Tag)

	assert.Equal(t, "Endpoint", byName["Fallback"].RenameTarget)
	assert.True(t, byName["Fallback"].IsStruct)

	assert.True(t, byName["Desc"].IsPointer)
	assert.Equal(t, "*string", byName["Desc"].Type)
	assert.True(t, byName["Hosts"].IsSlice)
	assert.True(t, byName["Labels"].IsMap)

	assert.Equal(t, "time", byName["CreatedAt"].TypePkg)
	assert.Equal(t, "Time", byName["CreatedAt"].TypeName)

	// Unexported fields never reach the shadow type: the deep-copy helpers
	// behind the generated methods skip them, so carrying them through would
	// make Clone silently drop values.
	assert.NotContains(t, byName, "secret")
}

func TestParseStructDirectiveConflict(t *testing.T) {
	t.Parallel()

	source := `package conf

type Config struct {
	Port int ` + "`optional:\"wrap,skip_wrap\"`" + `
}
`
	dir := writeSource(t, "config.go", source)
	_, err := ParseStruct(dir, "config.go", "Config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting directives")
	assert.Contains(t, err.Error(), "Port")
	assert.Contains(t, err.Error(), "Config")
}

func TestParseStructUnknownDirective(t *testing.T) {
	t.Parallel()

	source := `package conf

type Config struct {
	Port int ` + "`optional:\"wibble\"`" + `
}
`
	dir := writeSource(t, "config.go", source)
	_, err := ParseStruct(dir, "config.go", "Config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wibble")
}

func TestParseStructUnsupportedShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field string
	}{
		{"channel", "Events chan int"},
		{"function", "Hook func()"},
		{"non-empty interface", "Codec interface{ Encode() }"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			source := "package conf\n\ntype Config struct {\n\t" + tt.field + "\n}\n"
			dir := writeSource(t, "config.go", source)
			_, err := ParseStruct(dir, "config.go", "Config")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unsupported type shape")
		})
	}
}

func TestFindNestedStructs(t *testing.T) {
	t.Parallel()

	source := `package conf

type Config struct {
	Primary Endpoint
	Tuning  *TuningParams
	Extra   ExternalAlias
}

type Endpoint struct {
	Retry RetryPolicy
}

type RetryPolicy struct {
	Max int
}

type TuningParams struct {
	MaxConns int
}

type ExternalAlias = Endpoint
`
	dir := writeSource(t, "config.go", source)
	schema, err := ParseStruct(dir, "config.go", "Config")
	require.NoError(t, err)

	nested, err := FindNestedStructs(dir, schema)
	require.NoError(t, err)

	var names []string
	for _, n := range nested {
		names = append(names, n.Name)
	}
	// Transitive closure of local struct fields; the alias is skipped.
	assert.ElementsMatch(t, []string{"Endpoint", "TuningParams", "RetryPolicy"}, names)
}

func TestFindNestedStructsSurfacesSchemaErrors(t *testing.T) {
	t.Parallel()

	source := `package conf

type Config struct {
	Database DatabaseConfig
}

type DatabaseConfig struct {
	Port int ` + "`optional:\"skip_wrap,wrap\"`" + `
}
`
	dir := writeSource(t, "config.go", source)
	schema, err := ParseStruct(dir, "config.go", "Config")
	require.NoError(t, err)

	_, err = FindNestedStructs(dir, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting directives")
	assert.Contains(t, err.Error(), "DatabaseConfig")
}

func TestFindTypeAfterGenerateDirective(t *testing.T) {
	t.Parallel()

	source := `package conf

//go:generate optionalstruct -tests
type Config struct {
	Name string
}
`
	dir := writeSource(t, "config.go", source)
	name, err := FindTypeAfterGenerateDirective(dir, "config.go", GeneratorName)
	require.NoError(t, err)
	assert.Equal(t, "Config", name)
}
