package shadow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/eliad-wiz/OptionalStruct/internal/codegen"
)

// Generator runs shadow generation for one root struct and every local
// struct reachable from it.
type Generator struct {
	Config   codegen.GeneratorConfig
	Root     codegen.StructConfig
	Project  *codegen.ProjectConfig
	Registry *codegen.TypeRegistry
	// Workers bounds the per-struct resolution fan-out. Defaults to
	// GOMAXPROCS.
	Workers int
}

// Run resolves and emits the shadow file, plus the property-test file when
// configured. All output is rendered in memory first; nothing is written if
// any struct in the set fails to resolve.
func (g *Generator) Run(ctx context.Context) error {
	schemas, err := g.collectSchemas()
	if err != nil {
		return err
	}
	// Make sure every struct in the set is registered before resolution
	// starts; rename lookups against the frozen registry depend on it.
	for _, s := range schemas {
		if _, ok := g.Registry.Shadow(s.Name); !ok {
			g.Registry.Register(s.Name, g.structConfig(s.Name).ShadowName)
		}
	}

	// After the registry is frozen, structs resolve independently.
	structs := make([]*Struct, len(schemas))
	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(g.workers())
	for i, s := range schemas {
		i, s := i, s
		grp.Go(func() error {
			built, err := Build(s, g.structConfig(s.Name), g.Registry)
			if err != nil {
				return err
			}
			structs[i] = built
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	gen := codegen.NewTemplateGenerator(template.FuncMap{
		"mergeStmt": func(f Field) string { return MergeStmt("o", f) },
	})
	data := struct {
		Package string
		Imports []codegen.ImportInfo
		Structs []*Struct
	}{
		Package: g.Config.OutputPkg,
		Imports: codegen.CollectUsedImports(schemas),
		Structs: structs,
	}
	source, err := gen.Render(g.outputFile("_optional.go"), shadowTemplate, data)
	if err != nil {
		return fmt.Errorf("rendering shadow file: %w", err)
	}
	var tests []byte
	if g.Config.GenerateTest {
		tests, err = gen.Render(g.outputFile("_optional_test.go"), shadowTestTemplate, data)
		if err != nil {
			return fmt.Errorf("rendering shadow test file: %w", err)
		}
	}
	if err := os.WriteFile(g.outputFile("_optional.go"), source, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if tests != nil {
		if err := os.WriteFile(g.outputFile("_optional_test.go"), tests, 0644); err != nil {
			return fmt.Errorf("writing test file: %w", err)
		}
	}
	return nil
}

// collectSchemas parses the root struct and its transitive local nested
// structs, in a deterministic order with the root first.
func (g *Generator) collectSchemas() ([]*codegen.StructSchema, error) {
	root, err := codegen.ParseStruct(g.Config.SourceDir, g.Config.SourceFile, g.Config.TypeName)
	if err != nil {
		return nil, fmt.Errorf("parsing struct: %w", err)
	}
	nested, err := codegen.FindNestedStructs(g.Config.SourceDir, root)
	if err != nil {
		return nil, fmt.Errorf("finding nested structs: %w", err)
	}
	return append([]*codegen.StructSchema{root}, nested...), nil
}

func (g *Generator) structConfig(typeName string) codegen.StructConfig {
	if typeName == g.Config.TypeName {
		return g.Root
	}
	return g.Project.StructConfig(typeName)
}

func (g *Generator) workers() int {
	if g.Workers > 0 {
		return g.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (g *Generator) outputFile(suffix string) string {
	baseName := strings.TrimSuffix(g.Config.SourceFile, ".go")
	return filepath.Join(g.Config.OutputDir, baseName+suffix)
}
