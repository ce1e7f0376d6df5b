package shadow

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliad-wiz/OptionalStruct/internal/codegen"
)

const generatorTestSource = `package conf

import "time"

//go:generate optionalstruct
type Config struct {
	Name      string         ` + "`json:\"name\"`" + `
	Seed      int64          ` + "`optional:\"skip_wrap\" json:\"seed\"`" + `
	Database  DatabaseConfig ` + "`json:\"database\"`" + `
	CreatedAt time.Time      ` + "`json:\"created_at\"`" + `
}

type DatabaseConfig struct {
	Host string ` + "`json:\"host\"`" + `
	Port int    ` + "`json:\"port\"`" + `
}
`

func runGenerator(t *testing.T, source string, tests bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.go"), []byte(source), 0644))

	project, err := codegen.LoadProjectConfig(dir)
	require.NoError(t, err)
	reg, err := codegen.BuildRegistry(dir, project)
	require.NoError(t, err)

	gen := &Generator{
		Config: codegen.GeneratorConfig{
			TypeName:     "Config",
			SourceFile:   "config.go",
			SourceDir:    dir,
			OutputDir:    dir,
			OutputPkg:    "conf",
			GenerateTest: tests,
		},
		Root:     project.StructConfig("Config"),
		Project:  project,
		Registry: reg,
	}
	require.NoError(t, gen.Run(context.Background()))
	return dir
}

func parseGenerated(t *testing.T, path string) *ast.File {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	require.NoError(t, err, "generated file must be valid Go")
	return f
}

func declaredTypes(f *ast.File) map[string]bool {
	types := make(map[string]bool)
	for _, decl := range f.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				types[ts.Name.Name] = true
			}
		}
	}
	return types
}

func methodsOn(f *ast.File, typeName string) map[string]bool {
	methods := make(map[string]bool)
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		if ident, ok := fn.Recv.List[0].Type.(*ast.Ident); ok && ident.Name == typeName {
			methods[fn.Name.Name] = true
		}
	}
	return methods
}

func TestGeneratorEmitsShadowTypesAndMethods(t *testing.T) {
	t.Parallel()

	dir := runGenerator(t, generatorTestSource, false)
	f := parseGenerated(t, filepath.Join(dir, "config_optional.go"))

	types := declaredTypes(f)
	assert.True(t, types["OptionalConfig"])
	assert.True(t, types["OptionalDatabaseConfig"])

	for _, typ := range []string{"OptionalConfig", "OptionalDatabaseConfig"} {
		methods := methodsOn(f, typ)
		for _, m := range []string{"ApplyTo", "Clone", "Equal", "String"} {
			assert.True(t, methods[m], "%s must have %s", typ, m)
		}
	}
}

func TestGeneratorEmitsPropertyTests(t *testing.T) {
	t.Parallel()

	dir := runGenerator(t, generatorTestSource, true)
	f := parseGenerated(t, filepath.Join(dir, "config_optional_test.go"))

	var names []string
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil {
			names = append(names, fn.Name.Name)
		}
	}
	assert.Contains(t, names, "TestOptionalConfigZeroOverlayIsIdentity")
	assert.Contains(t, names, "TestOptionalConfigApplyIsIdempotent")
	assert.Contains(t, names, "TestOptionalDatabaseConfigZeroOverlayIsIdentity")
}

func TestGeneratorWritesNothingOnFatalError(t *testing.T) {
	t.Parallel()

	source := `package conf

//go:generate optionalstruct
type Config struct {
	Primary Node ` + "`optional:\"rename=Gone\"`" + `
}

type Node struct {
	Host string
}
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.go"), []byte(source), 0644))

	project, err := codegen.LoadProjectConfig(dir)
	require.NoError(t, err)
	reg, err := codegen.BuildRegistry(dir, project)
	require.NoError(t, err)

	gen := &Generator{
		Config: codegen.GeneratorConfig{
			TypeName:   "Config",
			SourceFile: "config.go",
			SourceDir:  dir,
			OutputDir:  dir,
			OutputPkg:  "conf",
		},
		Root:     project.StructConfig("Config"),
		Project:  project,
		Registry: reg,
	}
	err = gen.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gone")

	_, statErr := os.Stat(filepath.Join(dir, "config_optional.go"))
	assert.True(t, os.IsNotExist(statErr), "no partial output may be written")
}

func TestGeneratorRenameOnScalarFieldFatal(t *testing.T) {
	t.Parallel()

	// Recursive merge code on an int would not compile, so the run must
	// abort with a diagnostic instead of writing the file.
	source := `package conf

//go:generate optionalstruct
type Config struct {
	Port int ` + "`optional:\"rename=Node\"`" + `
}

//go:generate optionalstruct
type Node struct {
	Host string
}
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.go"), []byte(source), 0644))

	project, err := codegen.LoadProjectConfig(dir)
	require.NoError(t, err)
	reg, err := codegen.BuildRegistry(dir, project)
	require.NoError(t, err)

	gen := &Generator{
		Config: codegen.GeneratorConfig{
			TypeName:   "Config",
			SourceFile: "config.go",
			SourceDir:  dir,
			OutputDir:  dir,
			OutputPkg:  "conf",
		},
		Root:     project.StructConfig("Config"),
		Project:  project,
		Registry: reg,
	}
	err = gen.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config")
	assert.Contains(t, err.Error(), "Port")
	assert.Contains(t, err.Error(), "rename=Node")

	_, statErr := os.Stat(filepath.Join(dir, "config_optional.go"))
	assert.True(t, os.IsNotExist(statErr), "no partial output may be written")
}

func TestGeneratorConflictingDirectivesFatal(t *testing.T) {
	t.Parallel()

	source := `package conf

//go:generate optionalstruct
type Config struct {
	Port int ` + "`optional:\"skip_wrap,wrap\"`" + `
}
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.go"), []byte(source), 0644))

	project, err := codegen.LoadProjectConfig(dir)
	require.NoError(t, err)
	_, err = codegen.BuildRegistry(dir, project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Port")
	assert.Contains(t, err.Error(), "conflicting directives")
}
